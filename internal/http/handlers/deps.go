package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"techstore/internal/cart"
	"techstore/internal/config"
	"techstore/internal/media"
	"techstore/internal/realtime"
	"techstore/internal/repos"
	"techstore/internal/services"
)

// Externals are the optional collaborators main builds from config. Nil fields
// switch the matching feature off.
type Externals struct {
	Carts  *cart.Registry
	Bus    realtime.Broker
	Events services.EventPublisher
	Images media.Uploader
	Now    func() time.Time
}

type Deps struct {
	Auth     *services.AuthService
	Staff    *services.StaffService
	Settings *services.SettingsService

	AuthHandler        *AuthHandler
	CatalogHandler     *CatalogHandler
	CartHandler        *CartHandler
	ReservationHandler *ReservationHandler
	AdminHandler       *AdminHandler
	SettingsHandler    *SettingsHandler
	StaffHandler       *StaffHandler

	CookieSecure bool
}

func NewDeps(db *sqlx.DB, cfg config.Config, ext Externals) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	users := repos.NewUserRepo(db)

	authSvc := &services.AuthService{Users: users}
	staffSvc := &services.StaffService{Users: users}
	settingsSvc := services.NewSettingsService(repos.NewSettingsRepo(db), ext.Bus)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, ext.Images)
	stockSvc := services.NewStockService(repos.NewStockRepo(db))
	cartSvc := services.NewCartService(ext.Carts, prodRepo)
	resSvc := &services.ReservationService{
		Reservations: repos.NewReservationRepo(db),
		Carts:        ext.Carts,
		Settings:     settingsSvc,
		Events:       ext.Events,
		ClearCart:    cfg.ClearCartOnReservation,
		Now:          ext.Now,
	}

	return &Deps{
		Auth:     authSvc,
		Staff:    staffSvc,
		Settings: settingsSvc,

		AuthHandler:        &AuthHandler{Auth: authSvc, Secure: cfg.CookieSecure},
		CatalogHandler:     &CatalogHandler{Catalog: catalogSvc, Stock: stockSvc},
		CartHandler:        &CartHandler{Cart: cartSvc},
		ReservationHandler: &ReservationHandler{Reservations: resSvc},
		AdminHandler:       &AdminHandler{Catalog: catalogSvc, Stock: stockSvc, Reservations: resSvc},
		SettingsHandler:    &SettingsHandler{Settings: settingsSvc},
		StaffHandler:       &StaffHandler{Staff: staffSvc},

		CookieSecure: cfg.CookieSecure,
	}
}
