// Package sqlstore keeps the parcel documents in a relational database through
// gorm. Typed fields become columns; free-form attributes go to a JSON text
// column. SQLite is used for local runs and tests, Postgres for shared setups.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"parcel-delivery-api/models"
	"parcel-delivery-api/storage"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects and auto-migrates the tables
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "sql handle")
		}
		// one writer; also keeps an in-memory database alive across calls
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&userRow{}, &riderRow{}, &parcelRow{}, &paymentRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate database")
	}
	return &Store{db: db}, nil
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, storage.ErrNotInitialized
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store) Users() storage.UserStore       { return users{s} }
func (s *Store) Riders() storage.RiderStore     { return riders{s} }
func (s *Store) Parcels() storage.ParcelStore   { return parcels{s} }
func (s *Store) Payments() storage.PaymentStore { return payments{s} }

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return storage.ErrNotInitialized
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "sql handle")
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "ping database")
}

func (s *Store) Close(_ context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "sql handle")
	}
	s.db = nil
	return errors.Wrap(sqlDB.Close(), "close database")
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return storage.ErrDuplicate
	}
	return errors.Wrap(err, op)
}

// splitFields separates typed columns from free-form attributes and turns
// enum values into plain strings for the driver.
func splitFields(fields map[string]any, isColumn func(string) bool) (map[string]any, map[string]any) {
	columns := map[string]any{}
	extras := map[string]any{}
	for k, v := range fields {
		if !isColumn(k) {
			extras[k] = v
			continue
		}
		switch t := v.(type) {
		case models.DeliveryStatus:
			v = string(t)
		case models.PaymentStatus:
			v = string(t)
		case models.RiderStatus:
			v = string(t)
		case models.UserRole:
			v = string(t)
		case time.Time:
			v = t.UTC()
		}
		columns[k] = v
	}
	return columns, extras
}

func encodeDetails(d map[string]any) string {
	if len(d) == 0 {
		return ""
	}
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeDetails(s string) map[string]any {
	if s == "" {
		return nil
	}
	var d map[string]any
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil
	}
	return d
}

func mergeDetails(stored string, extras map[string]any) string {
	d := decodeDetails(stored)
	if d == nil {
		d = map[string]any{}
	}
	for k, v := range extras {
		d[k] = v
	}
	return encodeDetails(d)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
