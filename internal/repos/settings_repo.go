package repos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"techstore/internal/domain"
)

type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Latest returns the most recently updated settings row, or ErrNotFound.
func (r *SettingsRepo) Latest(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	err := r.db.GetContext(ctx, &s, `
	  SELECT id, store_name_en, store_name_ar, phone, whatsapp, email, address_en, address_ar, branches_json,
	         working_hours_en, working_hours_ar, announcement_en, announcement_ar, updated_at
	  FROM settings
	  ORDER BY updated_at DESC, rowid DESC
	  LIMIT 1`)
	if err != nil {
		return domain.Settings{}, notFound(err)
	}
	s.Branches = []string{}
	if s.BranchesJSON != "" {
		_ = json.Unmarshal([]byte(s.BranchesJSON), &s.Branches)
	}
	return s, nil
}

func (r *SettingsRepo) Insert(ctx context.Context, s *domain.Settings) error {
	if err := prepareSettings(s); err != nil {
		return err
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO settings
	    (id, store_name_en, store_name_ar, phone, whatsapp, email, address_en, address_ar, branches_json,
	     working_hours_en, working_hours_ar, announcement_en, announcement_ar, updated_at)
	  VALUES
	    (:id, :store_name_en, :store_name_ar, :phone, :whatsapp, :email, :address_en, :address_ar, :branches_json,
	     :working_hours_en, :working_hours_ar, :announcement_en, :announcement_ar, :updated_at)
	`, s)
	return err
}

func (r *SettingsRepo) Update(ctx context.Context, s *domain.Settings) error {
	if err := prepareSettings(s); err != nil {
		return err
	}
	return affected(r.db.NamedExecContext(ctx, `
	  UPDATE settings SET
	    store_name_en = :store_name_en, store_name_ar = :store_name_ar, phone = :phone, whatsapp = :whatsapp,
	    email = :email, address_en = :address_en, address_ar = :address_ar, branches_json = :branches_json,
	    working_hours_en = :working_hours_en, working_hours_ar = :working_hours_ar,
	    announcement_en = :announcement_en, announcement_ar = :announcement_ar, updated_at = :updated_at
	  WHERE id = :id
	`, s))
}

func prepareSettings(s *domain.Settings) error {
	if s.Branches == nil {
		s.Branches = []string{}
	}
	b, err := json.Marshal(s.Branches)
	if err != nil {
		return err
	}
	s.BranchesJSON = string(b)
	s.UpdatedAt = now()
	return nil
}
