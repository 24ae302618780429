package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"techstore/internal/cart"
	"techstore/internal/domain"
	applog "techstore/internal/log"
	"techstore/internal/repos"
	"techstore/internal/validate"
)

// EventPublisher is satisfied by events.Publisher.
type EventPublisher interface {
	ReservationCreated(ctx context.Context, r domain.Reservation) error
}

type ReservationService struct {
	Reservations *repos.ReservationRepo
	Carts        *cart.Registry
	Settings     *SettingsService
	// Events is optional.
	Events EventPublisher
	// ClearCart empties the cart after a successful submission.
	ClearCart bool
	Now       func() time.Time
}

type ReservationForm struct {
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	CustomerWhatsApp string `json:"customer_whatsapp"`
	CustomerEmail    string `json:"customer_email"`
	PickupBranch     string `json:"pickup_branch"`
	ProposedDate     string `json:"proposed_date"`
	ProposedTime     string `json:"proposed_time"`
	Notes            string `json:"notes"`
}

func (s *ReservationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit turns the session's cart into a pending reservation.
func (s *ReservationService) Submit(ctx context.Context, sessionID string, f ReservationForm) (domain.Reservation, error) {
	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	res, err := s.validate(f, settings)
	if err != nil {
		return domain.Reservation{}, err
	}

	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return domain.Reservation{}, err
	}
	items := st.Snapshot()
	if len(items) == 0 {
		return domain.Reservation{}, ErrEmptyCart
	}

	res.ID = uuid.NewString()
	res.ReferenceNumber = ReferenceNumber(s.now())
	res.Items = items
	res.TotalAmount = decimal.Zero
	for _, l := range items {
		res.TotalAmount = res.TotalAmount.Add(l.Subtotal())
	}
	if err := s.Reservations.Create(ctx, &res); err != nil {
		return domain.Reservation{}, err
	}

	if s.Events != nil {
		if err := s.Events.ReservationCreated(ctx, res); err != nil {
			applog.Component("reservations").Warn("reservation.event.fail", zap.String("ref", res.ReferenceNumber), zap.Error(err))
		}
	}
	if s.ClearCart {
		st.Clear(ctx)
	}
	return res, nil
}

func (s *ReservationService) validate(f ReservationForm, settings domain.Settings) (domain.Reservation, error) {
	var r domain.Reservation
	var ok bool
	if r.CustomerName, ok = validate.Name(f.CustomerName); !ok {
		return r, invalid("customer_name")
	}
	if r.CustomerPhone, ok = validate.Phone(f.CustomerPhone); !ok {
		return r, invalid("customer_phone")
	}
	if strings.TrimSpace(f.CustomerWhatsApp) != "" {
		if r.CustomerWhatsApp, ok = validate.Phone(f.CustomerWhatsApp); !ok {
			return r, invalid("customer_whatsapp")
		}
	}
	if strings.TrimSpace(f.CustomerEmail) != "" {
		if r.CustomerEmail, ok = validate.Email(f.CustomerEmail); !ok {
			return r, invalid("customer_email")
		}
	}
	r.PickupBranch = strings.TrimSpace(f.PickupBranch)
	if r.PickupBranch == "" || !settings.HasBranch(r.PickupBranch) {
		return r, invalid("pickup_branch")
	}
	if r.ProposedDate, ok = validate.Date(f.ProposedDate, s.now()); !ok {
		return r, invalid("proposed_date")
	}
	if r.ProposedTime, ok = validate.Time(f.ProposedTime); !ok {
		return r, invalid("proposed_time")
	}
	if r.Notes, ok = validate.Text(f.Notes, 500); !ok {
		return r, invalid("notes")
	}
	return r, nil
}

// ReferenceNumber is RSV-YYYYMMDD-XXXXXX with six uppercase hex characters.
func ReferenceNumber(at time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("RSV-%s-%s", at.Format("20060102"), strings.ToUpper(hex[:6]))
}

func (s *ReservationService) Lookup(ctx context.Context, ref string) (domain.Reservation, error) {
	return s.Reservations.ByReference(ctx, strings.TrimSpace(ref))
}

func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return s.Reservations.Get(ctx, id)
}

func (s *ReservationService) List(ctx context.Context, status string) ([]domain.Reservation, error) {
	st := domain.ReservationStatus(status)
	if status != "" && !st.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.Reservations.List(ctx, st, 200)
}

func (s *ReservationService) UpdateStatus(ctx context.Context, id, status string) error {
	st := domain.ReservationStatus(status)
	if !st.Valid() {
		return ErrInvalidStatus
	}
	return s.Reservations.UpdateStatus(ctx, id, st)
}
