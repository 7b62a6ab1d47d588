package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"newsletter_server/config"
	"newsletter_server/database"
	"newsletter_server/structs"
	"newsletter_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const TestSecret = "test-secret"

// NewTestConfig returns the default configuration with rate limiting off and a fixed JWT secret.
func NewTestConfig() *structs.Config {
	cfg := config.Load()
	cfg.Server.FrontendURL = "https://app.example.com"
	cfg.Auth.AccessTokenSecret = TestSecret
	cfg.RateLimit.Enabled = false
	cfg.Newsletter.AllowAnonymousUnsubscribe = false
	cfg.Newsletter.StrictNotifications = true
	return cfg
}

func NewTestLogger() *gecho.Logger {
	return gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(false), gecho.WithLogLevel(gecho.ParseLogLevel("error"))))
}

// SetupTestDB creates an in-memory SQLite database with the newsletter schema and the
// platform account tables.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := database.Wrap(bun.NewDB(sqldb, sqlitedialect.New()))
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := database.CreateSchema(ctx, db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := database.EnsureTables(ctx, db, (*tables.User)(nil), (*tables.Company)(nil)); err != nil {
		t.Fatalf("failed to create account tables: %v", err)
	}

	return db
}

func CreateTestCompany(t *testing.T, db *database.DB, name string) *tables.Company {
	t.Helper()

	company := &tables.Company{
		Id:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := db.NewInsert().Model(company).Exec(context.Background()); err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// CreateTestUser inserts a user; company may be nil.
func CreateTestUser(t *testing.T, db *database.DB, email string, company *tables.Company) *tables.User {
	t.Helper()

	user := &tables.User{
		Id:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if company != nil {
		user.CompanyId = &company.Id
	}
	if _, err := db.NewInsert().Model(user).Exec(context.Background()); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// GenerateToken signs an access token carrying every claim lib.ParseToken requires.
func GenerateToken(t *testing.T, secret, email, role string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"jti":   uuid.NewString(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
