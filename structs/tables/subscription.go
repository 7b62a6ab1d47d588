package tables

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubscriptionRecord holds the newsletter opt-out state of a single email address.
// An address without a record has never opted out.
type SubscriptionRecord struct {
	bun.BaseModel `bun:"table:newsletter_subscriptions,alias:ns"`

	Id                uuid.UUID  `json:"id" bun:"id,pk,type:uuid"`
	Email             string     `json:"email" bun:"email,notnull,unique"`
	LinkedUserId      *uuid.UUID `json:"linked_user_id,omitempty" bun:"linked_user_id,type:uuid"`
	LinkedCompanyId   *uuid.UUID `json:"linked_company_id,omitempty" bun:"linked_company_id,type:uuid"`
	IsSubscribed      bool       `json:"is_subscribed" bun:"is_subscribed,notnull"`
	UnsubscribeReason string     `json:"unsubscribe_reason" bun:"unsubscribe_reason"`
	UnsubscribeDate   *time.Time `json:"unsubscribe_date,omitempty" bun:"unsubscribe_date"`
	ResubscribeDate   *time.Time `json:"resubscribe_date,omitempty" bun:"resubscribe_date"`
	ResubscribeToken  string     `json:"-" bun:"resubscribe_token,notnull"`
	CreatedAt         time.Time  `json:"created_at" bun:"created_at,notnull"`
	UpdatedAt         time.Time  `json:"updated_at" bun:"updated_at,notnull"`
}

var _ bun.BeforeAppendModelHook = (*SubscriptionRecord)(nil)

// BeforeAppendModel keeps the audit timestamps current on every write.
func (s *SubscriptionRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.Id == uuid.Nil {
			s.Id = uuid.New()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}
