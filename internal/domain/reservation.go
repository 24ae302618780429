package domain

import "github.com/shopspring/decimal"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Reservation struct {
	ID               string            `db:"id" json:"id"`
	ReferenceNumber  string            `db:"reference_number" json:"reference_number"`
	CustomerName     string            `db:"customer_name" json:"customer_name"`
	CustomerPhone    string            `db:"customer_phone" json:"customer_phone"`
	CustomerWhatsApp string            `db:"customer_whatsapp" json:"customer_whatsapp,omitempty"`
	CustomerEmail    string            `db:"customer_email" json:"customer_email,omitempty"`
	PickupBranch     string            `db:"pickup_branch" json:"pickup_branch"`
	ProposedDate     string            `db:"proposed_date" json:"proposed_date"`
	ProposedTime     string            `db:"proposed_time" json:"proposed_time"`
	ItemsJSON        string            `db:"items_json" json:"-"`
	Items            []CartLine        `db:"-" json:"items"`
	TotalAmount      decimal.Decimal   `db:"total_amount" json:"total_amount"`
	Notes            string            `db:"notes" json:"notes,omitempty"`
	Status           ReservationStatus `db:"status" json:"status"`
	CreatedAt        string            `db:"created_at" json:"created_at"`
}
