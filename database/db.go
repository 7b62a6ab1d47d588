package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsletter_server/config"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DB wraps the bun database handle with additional functionality
type DB struct {
	*bun.DB
}

var instance *DB

// Wrap adopts an already opened bun handle, e.g. one backed by SQLite in tests.
func Wrap(db *bun.DB) *DB {
	return &DB{db}
}

// Connect establishes a connection to the database using centralized configuration
func Connect() (*DB, error) {
	logger := config.GetLogger()
	dbCfg := config.GetConfig().Database

	sqldb, err := openSQL(dbCfg)
	if err != nil {
		return nil, err
	}

	// Apply pool settings from configuration
	sqldb.SetMaxOpenConns(dbCfg.MaxConns)
	sqldb.SetMaxIdleConns(dbCfg.MinConns)
	sqldb.SetConnMaxLifetime(dbCfg.MaxLifetime)
	sqldb.SetConnMaxIdleTime(dbCfg.MaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())

	// Add connection hook to log and handle connection errors
	db.AddQueryHook(&connectionHealthHook{logger: logger, slowQuery: dbCfg.SlowQuery})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully", gecho.Field("driver", dbCfg.Driver))

	return &DB{db}, nil
}

func openSQL(dbCfg *structs.DatabaseConfig) (*sql.DB, error) {
	switch strings.ToLower(dbCfg.Driver) {
	case "", "pgdriver":
		connector := pgdriver.NewConnector(
			pgdriver.WithAddr(fmt.Sprintf("%s:%d", dbCfg.Host, dbCfg.Port)),
			pgdriver.WithUser(dbCfg.User),
			pgdriver.WithPassword(dbCfg.Password),
			pgdriver.WithDatabase(dbCfg.Name),
			pgdriver.WithInsecure(dbCfg.SSLMode == "disable"),
			pgdriver.WithReadTimeout(dbCfg.ReadTimeout),
			pgdriver.WithWriteTimeout(dbCfg.WriteTimeout),
		)
		return sql.OpenDB(connector), nil
	case "pgx":
		return sql.Open("pgx", pgxDSN(dbCfg))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}
}

func pgxDSN(dbCfg *structs.DatabaseConfig) string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(dbCfg.User, dbCfg.Password),
		Host:   fmt.Sprintf("%s:%d", dbCfg.Host, dbCfg.Port),
		Path:   "/" + dbCfg.Name,
	}
	q := dsn.Query()
	q.Set("sslmode", dbCfg.SSLMode)
	if dbCfg.ReadTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(dbCfg.ReadTimeout.Seconds())))
	}
	dsn.RawQuery = q.Encode()
	return dsn.String()
}

// Initialize sets up the global database instance using centralized configuration
func Initialize() error {
	db, err := Connect()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	instance = db
	return nil
}

// GetInstance returns the global database instance.
// It returns nil until Initialize has succeeded.
func GetInstance() *DB {
	return instance
}

// CloseInstance closes the global database instance
func CloseInstance() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

// GetStats returns connection pool statistics for monitoring
func (db *DB) GetStats() sql.DBStats {
	return db.DB.DB.Stats()
}

// connectionHealthHook implements bun.QueryHook to monitor connection health
type connectionHealthHook struct {
	logger    *gecho.Logger
	slowQuery time.Duration
}

var _ bun.QueryHook = (*connectionHealthHook)(nil)

func (h *connectionHealthHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *connectionHealthHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	if h.slowQuery > 0 && duration > h.slowQuery {
		h.logger.Warn("Slow database query detected",
			gecho.Field("query", event.Query),
			gecho.Field("duration", duration),
		)
	}

	if event.Err != nil && isConnectionDrop(event.Err) {
		h.logger.Error("Database connection EOF error - connection may have been closed by server",
			gecho.Field("error", event.Err),
			gecho.Field("operation", event.Operation()),
		)
	}
}

func isConnectionDrop(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
