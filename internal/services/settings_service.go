package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"techstore/internal/domain"
	applog "techstore/internal/log"
	"techstore/internal/realtime"
	"techstore/internal/repos"
	"techstore/internal/validate"
)

// SettingsService caches the store settings and drops the cache whenever any
// instance announces a save.
type SettingsService struct {
	Repo *repos.SettingsRepo
	// Bus is optional; without it only local saves invalidate the cache.
	Bus realtime.Broker

	mu     sync.RWMutex
	cached *domain.Settings
	// gen is bumped by Invalidate; a read only caches if gen has not moved.
	gen uint64
}

func NewSettingsService(repo *repos.SettingsRepo, bus realtime.Broker) *SettingsService {
	return &SettingsService{Repo: repo, Bus: bus}
}

// DefaultSettings is served until an admin saves the first row.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		StoreNameEN: "Tech Store",
		StoreNameAR: "متجر التقنية",
		Branches:    []string{},
	}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	s.mu.RLock()
	if s.cached != nil {
		out := copySettings(*s.cached)
		s.mu.RUnlock()
		return out, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	st, err := s.Repo.Latest(ctx)
	if errors.Is(err, repos.ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	s.store(gen, st)
	return copySettings(st), nil
}

// Save updates the current row, inserting one if none exists, and announces the change.
func (s *SettingsService) Save(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	if err := cleanSettings(&in); err != nil {
		return domain.Settings{}, err
	}
	cur, err := s.Repo.Latest(ctx)
	switch {
	case errors.Is(err, repos.ErrNotFound):
		in.ID = uuid.NewString()
		err = s.Repo.Insert(ctx, &in)
	case err == nil:
		in.ID = cur.ID
		err = s.Repo.Update(ctx, &in)
	}
	if err != nil {
		return domain.Settings{}, err
	}

	s.Invalidate()
	if s.Bus != nil {
		payload, _ := json.Marshal(map[string]string{"id": in.ID, "updated_at": in.UpdatedAt})
		if err := s.Bus.Publish(ctx, realtime.SettingsChannel, payload); err != nil {
			applog.Component("settings").Warn("settings.publish.fail", zap.Error(err))
		}
	}
	return in, nil
}

func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.gen++
	s.mu.Unlock()
}

// store caches st unless an Invalidate landed after the read that produced it.
func (s *SettingsService) store(gen uint64, st domain.Settings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.cached = &st
	return true
}

// Start listens for settings changes from every instance.
func (s *SettingsService) Start(ctx context.Context) (func(), error) {
	if s.Bus == nil {
		return func() {}, nil
	}
	return s.Bus.Subscribe(ctx, realtime.SettingsChannel, func([]byte) { s.Invalidate() })
}

func cleanSettings(in *domain.Settings) error {
	var ok bool
	fields := []struct {
		name string
		val  *string
		max  int
	}{
		{"store_name_en", &in.StoreNameEN, 80},
		{"store_name_ar", &in.StoreNameAR, 80},
		{"address_en", &in.AddressEN, 200},
		{"address_ar", &in.AddressAR, 200},
		{"working_hours_en", &in.WorkingHoursEN, 200},
		{"working_hours_ar", &in.WorkingHoursAR, 200},
		{"announcement_en", &in.AnnouncementEN, 300},
		{"announcement_ar", &in.AnnouncementAR, 300},
	}
	for _, f := range fields {
		if *f.val, ok = validate.Text(*f.val, f.max); !ok {
			return invalid(f.name)
		}
	}
	if in.StoreNameEN == "" || in.StoreNameAR == "" {
		return invalid("store_name")
	}
	for _, p := range []struct {
		name string
		val  *string
	}{{"phone", &in.Phone}, {"whatsapp", &in.WhatsApp}} {
		if strings.TrimSpace(*p.val) == "" {
			*p.val = ""
			continue
		}
		if *p.val, ok = validate.Phone(*p.val); !ok {
			return invalid(p.name)
		}
	}
	if strings.TrimSpace(in.Email) != "" {
		if in.Email, ok = validate.Email(in.Email); !ok {
			return invalid("email")
		}
	}

	seen := map[string]bool{}
	branches := []string{}
	for _, b := range in.Branches {
		b = strings.TrimSpace(b)
		if b == "" || seen[b] {
			continue
		}
		if len([]rune(b)) > 80 {
			return invalid("branches")
		}
		seen[b] = true
		branches = append(branches, b)
	}
	in.Branches = branches
	return nil
}

func copySettings(s domain.Settings) domain.Settings {
	s.Branches = append([]string{}, s.Branches...)
	return s
}
