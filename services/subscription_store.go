package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsletter_server/database"
	"newsletter_server/lib"
	"newsletter_server/structs/tables"

	"github.com/google/uuid"
)

// SubscriptionState is the answer of the store for a single address.
// StateNoRecord is kept apart from StateSubscribed so callers decide the default.
type SubscriptionState int

const (
	StateNoRecord SubscriptionState = iota
	StateSubscribed
	StateUnsubscribed
)

func (s SubscriptionState) String() string {
	switch s {
	case StateSubscribed:
		return "subscribed"
	case StateUnsubscribed:
		return "unsubscribed"
	default:
		return "no_record"
	}
}

// DefaultUnsubscribeReason is stored when an unsubscribe arrives without a reason.
const DefaultUnsubscribeReason = "User requested"

type UnsubscribeParams struct {
	Email           string
	Reason          string
	LinkedUserId    *uuid.UUID
	LinkedCompanyId *uuid.UUID
	Token           string
	At              time.Time
}

// SubscriptionStore persists one SubscriptionRecord per email address.
// Lookups that find nothing return lib.ErrNotFound.
type SubscriptionStore interface {
	UpsertUnsubscribe(ctx context.Context, params UnsubscribeParams) (*tables.SubscriptionRecord, error)
	FindByEmailAndToken(ctx context.Context, email, token string) (*tables.SubscriptionRecord, error)
	FindByToken(ctx context.Context, token string) (*tables.SubscriptionRecord, error)
	// MarkResubscribed flips the record back to subscribed and stores newToken, but only
	// while record.ResubscribeToken is still the stored token. Otherwise lib.ErrInvalidToken.
	MarkResubscribed(ctx context.Context, record *tables.SubscriptionRecord, newToken string, at time.Time) (*tables.SubscriptionRecord, error)
	Lookup(ctx context.Context, email string) (SubscriptionState, error)
}

type BunSubscriptionStore struct {
	db *database.DB
}

func NewBunSubscriptionStore(db *database.DB) *BunSubscriptionStore {
	return &BunSubscriptionStore{db: db}
}

func (s *BunSubscriptionStore) UpsertUnsubscribe(ctx context.Context, params UnsubscribeParams) (*tables.SubscriptionRecord, error) {
	if params.At.IsZero() {
		params.At = time.Now().UTC()
	}
	params.Reason = normalizeReason(params.Reason, DefaultUnsubscribeReason)

	var result *tables.SubscriptionRecord
	err := database.WithRetry(ctx, func() error {
		at := params.At
		record := &tables.SubscriptionRecord{
			Email:             params.Email,
			LinkedUserId:      params.LinkedUserId,
			LinkedCompanyId:   params.LinkedCompanyId,
			IsSubscribed:      false,
			UnsubscribeReason: params.Reason,
			UnsubscribeDate:   &at,
			ResubscribeToken:  params.Token,
		}

		_, err := s.db.NewInsert().
			Model(record).
			On("CONFLICT (email) DO UPDATE").
			Set("is_subscribed = EXCLUDED.is_subscribed").
			Set("unsubscribe_reason = EXCLUDED.unsubscribe_reason").
			Set("unsubscribe_date = EXCLUDED.unsubscribe_date").
			Set("resubscribe_token = EXCLUDED.resubscribe_token").
			Set("linked_user_id = EXCLUDED.linked_user_id").
			Set("linked_company_id = EXCLUDED.linked_company_id").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, storageError("upsert unsubscribe", err)
	}

	return result, nil
}

func (s *BunSubscriptionStore) FindByEmailAndToken(ctx context.Context, email, token string) (*tables.SubscriptionRecord, error) {
	return s.findOne(ctx, "find by email and token", func(record *tables.SubscriptionRecord) error {
		return s.db.NewSelect().
			Model(record).
			Where("email = ?", email).
			Where("resubscribe_token = ?", token).
			Limit(1).
			Scan(ctx)
	})
}

func (s *BunSubscriptionStore) FindByToken(ctx context.Context, token string) (*tables.SubscriptionRecord, error) {
	return s.findOne(ctx, "find by token", func(record *tables.SubscriptionRecord) error {
		return s.db.NewSelect().
			Model(record).
			Where("resubscribe_token = ?", token).
			Limit(1).
			Scan(ctx)
	})
}

func (s *BunSubscriptionStore) MarkResubscribed(ctx context.Context, record *tables.SubscriptionRecord, newToken string, at time.Time) (*tables.SubscriptionRecord, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var updated *tables.SubscriptionRecord
	err := database.WithRetry(ctx, func() error {
		var rows []tables.SubscriptionRecord
		_, err := s.db.NewUpdate().
			Model(new(tables.SubscriptionRecord)).
			Set("is_subscribed = ?", true).
			Set("resubscribe_date = ?", at).
			Set("resubscribe_token = ?", newToken).
			Set("updated_at = ?", time.Now().UTC()).
			Where("email = ?", record.Email).
			Where("resubscribe_token = ?", record.ResubscribeToken).
			Returning("*").
			Exec(ctx, &rows)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if len(rows) > 0 {
			updated = &rows[0]
			return nil
		}

		// An earlier attempt may have committed before its connection dropped.
		// newToken is fresh, so finding it stored means this update already applied.
		applied := new(tables.SubscriptionRecord)
		err = s.db.NewSelect().
			Model(applied).
			Where("email = ?", record.Email).
			Where("resubscribe_token = ?", newToken).
			Where("is_subscribed = ?", true).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return lib.ErrInvalidToken
		}
		if err != nil {
			return err
		}
		updated = applied
		return nil
	})
	if err != nil {
		if errors.Is(err, lib.ErrInvalidToken) {
			return nil, err
		}
		return nil, storageError("mark resubscribed", err)
	}

	return updated, nil
}

func (s *BunSubscriptionStore) Lookup(ctx context.Context, email string) (SubscriptionState, error) {
	record, err := s.findOne(ctx, "lookup", func(record *tables.SubscriptionRecord) error {
		return s.db.NewSelect().
			Model(record).
			Column("is_subscribed").
			Where("email = ?", email).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, lib.ErrNotFound) {
		return StateNoRecord, nil
	}
	if err != nil {
		return StateNoRecord, err
	}
	if record.IsSubscribed {
		return StateSubscribed, nil
	}
	return StateUnsubscribed, nil
}

func (s *BunSubscriptionStore) findOne(ctx context.Context, op string, scan func(*tables.SubscriptionRecord) error) (*tables.SubscriptionRecord, error) {
	record := new(tables.SubscriptionRecord)
	err := database.WithRetry(ctx, func() error {
		return scan(record)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lib.ErrNotFound
	}
	if err != nil {
		return nil, storageError(op, err)
	}
	return record, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", lib.ErrStorage, op, lib.MapPgError(err))
}

// normalizeReason falls back to fallback for blank reasons.
func normalizeReason(reason, fallback string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fallback
	}
	return reason
}
