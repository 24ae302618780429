package repos

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"techstore/internal/domain"
)

type ReservationRepo struct{ db *sqlx.DB }

func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `
    id, reference_number, customer_name, customer_phone, customer_whatsapp, customer_email,
    pickup_branch, proposed_date, proposed_time, items_json, total_amount, notes, status, created_at
  FROM reservations`

// Create stores r as pending and fills its created_at.
func (r *ReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	items, err := json.Marshal(res.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	res.ItemsJSON = string(items)
	res.Status = domain.StatusPending
	res.CreatedAt = now()
	_, err = r.db.NamedExecContext(ctx, `
	  INSERT INTO reservations
	    (id, reference_number, customer_name, customer_phone, customer_whatsapp, customer_email,
	     pickup_branch, proposed_date, proposed_time, items_json, total_amount, notes, status, created_at)
	  VALUES
	    (:id, :reference_number, :customer_name, :customer_phone, :customer_whatsapp, :customer_email,
	     :pickup_branch, :proposed_date, :proposed_time, :items_json, :total_amount, :notes, :status, :created_at)
	`, res)
	return err
}

func (r *ReservationRepo) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return r.one(ctx, `SELECT`+reservationCols+` WHERE id = ?`, id)
}

func (r *ReservationRepo) ByReference(ctx context.Context, ref string) (domain.Reservation, error) {
	return r.one(ctx, `SELECT`+reservationCols+` WHERE reference_number = ?`, ref)
}

func (r *ReservationRepo) one(ctx context.Context, q string, arg any) (domain.Reservation, error) {
	var res domain.Reservation
	if err := r.db.GetContext(ctx, &res, q, arg); err != nil {
		return domain.Reservation{}, notFound(err)
	}
	if err := decodeItems(&res); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

// List returns reservations newest first, optionally filtered by status.
func (r *ReservationRepo) List(ctx context.Context, status domain.ReservationStatus, limit int) ([]domain.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT` + reservationCols
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	var out []domain.Reservation
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	for i := range out {
		if err := decodeItems(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	return affected(r.db.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id))
}

func decodeItems(res *domain.Reservation) error {
	res.Items = []domain.CartLine{}
	if res.ItemsJSON == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(res.ItemsJSON), &res.Items); err != nil {
		return fmt.Errorf("decode items of %s: %w", res.ID, err)
	}
	return nil
}
