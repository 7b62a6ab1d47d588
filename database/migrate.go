package database

import (
	"context"
	"fmt"

	"newsletter_server/structs/tables"
)

type indexSpec struct {
	name   string
	column string
}

var subscriptionIndexes = []indexSpec{
	{name: "idx_newsletter_subscriptions_token", column: "resubscribe_token"},
	{name: "idx_newsletter_subscriptions_user", column: "linked_user_id"},
	{name: "idx_newsletter_subscriptions_company", column: "linked_company_id"},
}

// CreateSchema creates the newsletter table and its lookup indexes if they are missing.
// The users and companies tables belong to the platform and are never created here.
func CreateSchema(ctx context.Context, db *DB) error {
	if err := EnsureTables(ctx, db, (*tables.SubscriptionRecord)(nil)); err != nil {
		return err
	}

	for _, idx := range subscriptionIndexes {
		_, err := db.NewCreateIndex().
			Model((*tables.SubscriptionRecord)(nil)).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// EnsureTables runs CREATE TABLE IF NOT EXISTS for each model.
func EnsureTables(ctx context.Context, db *DB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}
