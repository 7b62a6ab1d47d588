package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsletter_server/database"
	"newsletter_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// AccountDirectory resolves platform users and companies. Absence is not an error:
// FindUserByEmail returns nil and FindCompanyName returns "".
type AccountDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (*tables.User, error)
	FindCompanyName(ctx context.Context, id uuid.UUID) (string, error)
}

// CompanyNameCache is the subset of CacheService the directory needs.
type CompanyNameCache interface {
	GetCompanyName(ctx context.Context, id uuid.UUID) (string, error)
	SetCompanyName(ctx context.Context, id uuid.UUID, name string) error
}

type BunAccountDirectory struct {
	logger *gecho.Logger
	db     *database.DB
	cache  CompanyNameCache
}

// NewBunAccountDirectory builds a directory over the users and companies tables.
// cache may be nil.
func NewBunAccountDirectory(logger *gecho.Logger, db *database.DB, cache CompanyNameCache) *BunAccountDirectory {
	return &BunAccountDirectory{
		logger: logger,
		db:     db,
		cache:  cache,
	}
}

// FindUserByEmail matches the platform's stored address exactly. Users are stored with
// normalized emails, so the unique index on users.email serves the lookup.
func (d *BunAccountDirectory) FindUserByEmail(ctx context.Context, email string) (*tables.User, error) {
	user := new(tables.User)
	err := database.WithRetry(ctx, func() error {
		return d.db.NewSelect().
			Model(user).
			Where("email = ?", email).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return user, nil
}

func (d *BunAccountDirectory) FindCompanyName(ctx context.Context, id uuid.UUID) (string, error) {
	if d.cache != nil {
		name, err := d.cache.GetCompanyName(ctx, id)
		if err != nil {
			d.logger.Warn("Company name cache read failed, falling back to database", gecho.Field("error", err), gecho.Field("company_id", id))
		} else if name != "" {
			return name, nil
		}
	}

	company := new(tables.Company)
	err := database.WithRetry(ctx, func() error {
		return d.db.NewSelect().
			Model(company).
			Column("id", "name").
			Where("id = ?", id).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up company: %w", err)
	}

	if d.cache != nil && company.Name != "" {
		if err := d.cache.SetCompanyName(ctx, id, company.Name); err != nil {
			d.logger.Warn("Company name cache write failed", gecho.Field("error", err), gecho.Field("company_id", id))
		}
	}

	return company.Name, nil
}
