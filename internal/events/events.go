// Package events publishes reservation events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"techstore/internal/domain"
	applog "techstore/internal/log"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	log    *zap.Logger
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return newPublisher(w)
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, log: applog.Component("events")}
}

// ReservationCreated is the event body.
type ReservationCreated struct {
	Type            string            `json:"type"`
	ReservationID   string            `json:"reservation_id"`
	ReferenceNumber string            `json:"reference_number"`
	PickupBranch    string            `json:"pickup_branch"`
	ProposedDate    string            `json:"proposed_date"`
	ProposedTime    string            `json:"proposed_time"`
	TotalAmount     string            `json:"total_amount"`
	Items           []ReservationItem `json:"items"`
	CreatedAt       string            `json:"created_at"`
}

type ReservationItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

func (p *Publisher) ReservationCreated(ctx context.Context, r domain.Reservation) error {
	ev := ReservationCreated{
		Type:            "reservation.created",
		ReservationID:   r.ID,
		ReferenceNumber: r.ReferenceNumber,
		PickupBranch:    r.PickupBranch,
		ProposedDate:    r.ProposedDate,
		ProposedTime:    r.ProposedTime,
		TotalAmount:     r.TotalAmount.String(),
		CreatedAt:       r.CreatedAt,
	}
	for _, l := range r.Items {
		ev.Items = append(ev.Items, ReservationItem{ProductID: l.Product.ID, Quantity: l.Quantity, Price: l.Product.Price.String()})
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(r.ReferenceNumber), Value: body}); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.log.Info("events.published", zap.String("type", ev.Type), zap.String("ref", r.ReferenceNumber))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
