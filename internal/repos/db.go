package repos

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	applog "techstore/internal/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// TimeLayout is how timestamps are stored. Fixed width so text order is time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func now() string { return time.Now().UTC().Format(TimeLayout) }

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection: an in-memory database is per connection, and SQLite has a single writer anyway
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("pragmas: %w", err)
	}
	if err := RunMigrations(db.DB); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// seedIfEmpty inserts a demo catalog and store settings into a fresh database.
func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Component("seed").Info("seed.catalog")

	ts := now()
	tx, err := db.BeginTxx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO categories(id,name_en,name_ar,slug,created_at) VALUES
		  ('laptops','Laptops','حواسيب محمولة','laptops',?),
		  ('accessories','Accessories','إكسسوارات','accessories',?),
		  ('components','PC Components','مكونات الحاسوب','components',?)`, []any{ts, ts, ts}},
		{`INSERT INTO products(id,category_id,name_en,name_ar,brand,description_en,description_ar,price,images_json,stock,active,created_at) VALUES
		  ('lap-001','laptops','Gaming Laptop 15"','حاسوب ألعاب 15 بوصة','ASUS','RTX graphics, 16GB RAM','بطاقة رسوميات RTX وذاكرة 16 جيجابايت','1999','["products/lap-001/main.jpg"]',5,1,?),
		  ('lap-002','laptops','Ultrabook 13"','حاسوب نحيف 13 بوصة','Dell','Lightweight aluminium body','هيكل ألمنيوم خفيف','1249.50','["products/lap-002/main.jpg"]',3,1,?),
		  ('acc-001','accessories','Mechanical Keyboard','لوحة مفاتيح ميكانيكية','Logitech','Hot-swappable switches','مفاتيح قابلة للتبديل','89.90','[]',25,1,?),
		  ('acc-002','accessories','Wireless Mouse','فأرة لاسلكية','Logitech','Silent clicks','نقرات صامتة','29','[]',0,1,?),
		  ('cmp-001','components','1TB NVMe SSD','قرص NVMe سعة 1 تيرابايت','Samsung','PCIe 4.0','PCIe 4.0','119','[]',12,1,?)`,
			[]any{ts, ts, ts, ts, ts}},
		{`INSERT INTO settings(id,store_name_en,store_name_ar,phone,whatsapp,email,address_en,address_ar,branches_json,working_hours_en,working_hours_ar,updated_at) VALUES
		  ('default','Tech Store','متجر التقنية','+966500000000','+966500000000','info@techstore.test','King Fahd Road, Riyadh','طريق الملك فهد، الرياض','["Riyadh Main","Jeddah Mall"]','Sat-Thu 10:00-22:00','السبت-الخميس 10:00-22:00',?)`, []any{ts}},
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s.q, s.args...); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affected maps a zero-row write to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
