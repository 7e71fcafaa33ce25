// Package store is the repository layer: one gorm-backed repository per
// entity plus the subscription edges between users. Every failure leaves the
// package as an *apperr.Error of kind NOT_FOUND, CONSTRAINT_VIOLATION or
// TRANSPORT, or as the context error that stopped it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "github.com/hanpama/membergraph/internal/apperr"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Config selects and tunes the database.
type Config struct {
	Dialect         string        `mapstructure:"dialect"`
	DSN             string        `mapstructure:"dsn"`
	Debug           bool          `mapstructure:"debug"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

func (c Config) Validate() error {
	switch c.Dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return fmt.Errorf("database.dialect: unsupported dialect %q", c.Dialect)
	}
	if c.DSN == "" {
		return errors.New("database.dsn: must not be empty")
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns: must not be negative, got %d", c.MaxOpenConns)
	}
	return nil
}

// Store bundles the repositories that share one connection pool.
type Store struct {
	db *gorm.DB

	MemberTypes   *MemberTypes
	Users         *Repository[User, uuid.UUID]
	Profiles      *Repository[Profile, uuid.UUID]
	Posts         *Repository[Post, uuid.UUID]
	Subscriptions *Subscriptions
}

// Open connects to the configured database. It does not touch the schema;
// call Migrate for that.
func Open(cfg Config, log zerolog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}
	level := zerolog.TraceLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log, level),
		TranslateError: true,
		PrepareStmt:    cfg.Dialect == DialectPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.Dialect == DialectSQLite:
		// sqlite allows one writer; a single connection also keeps an
		// in-memory database alive and shared.
		sqlDB.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return newStore(db, cfg.CacheTTL), nil
}

func newStore(db *gorm.DB, cacheTTL time.Duration) *Store {
	s := &Store{
		db:            db,
		Users:         newRepository[User, uuid.UUID](db, "user", "created_at, id"),
		Profiles:      newRepository[Profile, uuid.UUID](db, "profile", "created_at, id"),
		Posts:         newRepository[Post, uuid.UUID](db, "post", "created_at, id"),
		Subscriptions: &Subscriptions{db: db},
	}
	s.MemberTypes = newMemberTypes(newRepository[MemberType, MemberTypeID](db, "member type", "id"), cacheTTL)
	s.Users.cascade = func(tx *gorm.DB, id uuid.UUID) error {
		if err := tx.Where("subscriber_id = ? OR author_id = ?", id, id).Delete(&Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&Post{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Delete(&Profile{}).Error
	}
	return s
}

// Migrate creates or updates the tables and seeds the member types.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	seeds := append([]MemberType(nil), seedMemberTypes...)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seeds).Error; err != nil {
		return fmt.Errorf("seed member types: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return translate(sqlDB.PingContext(ctx), "database")
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate classifies a database error. Context errors pass through so the
// caller can tell a timeout from a broken database.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Constraint(err, "%s already exists", entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Constraint(err, "%s references a record that does not exist", entity)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return apperr.Constraint(err, "%s violates a constraint", entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return apperr.Constraint(err, "%s violates a constraint", entity)
	}
	return apperr.Transport(err, "%s storage unavailable", entity)
}
