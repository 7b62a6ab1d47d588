package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"newsletter_server/lib"
	"newsletter_server/structs"
	"newsletter_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

const unknownCompanyName = "Unknown Company"

// NewsletterService runs the unsubscribe / resubscribe / verify workflow.
//
// Every state change rotates the resubscribe token. Confirmation emails are sent
// after the change is committed; with StrictNotifications a failed send fails the
// whole operation even though the stored state has already changed.
type NewsletterService struct {
	logger   *gecho.Logger
	cfg      *structs.Config
	store    SubscriptionStore
	accounts AccountDirectory
	notifier Notifier
	metrics  *NewsletterMetrics
	now      func() time.Time
}

func NewNewsletterService(
	logger *gecho.Logger,
	cfg *structs.Config,
	store SubscriptionStore,
	accounts AccountDirectory,
	notifier Notifier,
	metrics *NewsletterMetrics,
) *NewsletterService {
	return &NewsletterService{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		accounts: accounts,
		notifier: notifier,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (ns *NewsletterService) newToken() (string, error) {
	size := ns.cfg.Newsletter.TokenBytes
	if size <= 0 {
		size = lib.DefaultTokenBytes
	}
	token, err := lib.GenerateHexToken(size)
	if err != nil {
		return "", fmt.Errorf("%w: %w", lib.ErrStorage, err)
	}
	return token, nil
}

// Unsubscribe opts email out of the newsletter and returns the token that can undo it.
func (ns *NewsletterService) Unsubscribe(ctx context.Context, email, reason string) (*structs.UnsubscribeResult, error) {
	email = lib.NormalizeEmail(email)
	if email == "" {
		return nil, lib.NewValidationError("email", "is required")
	}

	user, err := ns.accounts.FindUserByEmail(ctx, email)
	if err != nil {
		// directory outage: keep the opt-out, just without the account link
		ns.logger.Warn("Account lookup failed, storing unlinked unsubscribe", gecho.Field("error", err), gecho.Field("email", email))
		user = nil
	} else if user == nil && !ns.cfg.Newsletter.AllowAnonymousUnsubscribe {
		ns.logger.Warn("Unsubscribe requested for unknown account", gecho.Field("email", email))
		ns.metrics.transition("unsubscribe", "account_not_found")
		return nil, lib.ErrAccountNotFound
	}

	token, err := ns.newToken()
	if err != nil {
		ns.metrics.transition("unsubscribe", "error")
		return nil, err
	}

	params := UnsubscribeParams{
		Email:  email,
		Reason: normalizeReason(reason, ns.cfg.Newsletter.DefaultReason),
		Token:  token,
		At:     ns.now(),
	}
	if user != nil {
		params.LinkedUserId = &user.Id
		params.LinkedCompanyId = user.CompanyId
	}

	record, err := ns.store.UpsertUnsubscribe(ctx, params)
	if err != nil {
		ns.logger.Error("Failed to store unsubscribe", gecho.Field("error", err), gecho.Field("email", email))
		ns.metrics.transition("unsubscribe", "error")
		return nil, err
	}

	ns.logger.Info("Email unsubscribed from newsletter", gecho.Field("email", email), gecho.Field("company_id", record.LinkedCompanyId))

	result := &structs.UnsubscribeResult{
		Success:          true,
		CompanyId:        record.LinkedCompanyId,
		ResubscribeToken: record.ResubscribeToken,
	}

	sent, warning, err := ns.notify(ctx, "unsubscribe", record,
		"You have been unsubscribed",
		ns.unsubscribeBody(record),
	)
	if err != nil {
		ns.metrics.transition("unsubscribe", "notification_failed")
		return nil, err
	}
	result.NotificationSent = sent
	result.Warning = warning

	ns.metrics.transition("unsubscribe", "success")
	return result, nil
}

// Resubscribe consumes a token issued by Unsubscribe. Unknown email and wrong token
// are reported with the same error.
func (ns *NewsletterService) Resubscribe(ctx context.Context, email, token string) (*structs.ResubscribeResult, error) {
	email = lib.NormalizeEmail(email)
	token = strings.TrimSpace(token)
	if email == "" {
		return nil, lib.NewValidationError("email", "is required")
	}
	if token == "" {
		return nil, lib.NewValidationError("token", "is required")
	}

	record, err := ns.store.FindByEmailAndToken(ctx, email, token)
	if errors.Is(err, lib.ErrNotFound) {
		ns.logger.Warn("Resubscribe attempted with invalid token", gecho.Field("email", email))
		ns.metrics.transition("resubscribe", "invalid_token")
		return nil, lib.ErrInvalidToken
	}
	if err != nil {
		ns.logger.Error("Failed to look up subscription", gecho.Field("error", err), gecho.Field("email", email))
		ns.metrics.transition("resubscribe", "error")
		return nil, err
	}

	newToken, err := ns.newToken()
	if err != nil {
		ns.metrics.transition("resubscribe", "error")
		return nil, err
	}

	updated, err := ns.store.MarkResubscribed(ctx, record, newToken, ns.now())
	if errors.Is(err, lib.ErrInvalidToken) {
		// a concurrent request consumed the token between lookup and update
		ns.metrics.transition("resubscribe", "invalid_token")
		return nil, lib.ErrInvalidToken
	}
	if err != nil {
		ns.logger.Error("Failed to store resubscribe", gecho.Field("error", err), gecho.Field("email", email))
		ns.metrics.transition("resubscribe", "error")
		return nil, err
	}

	ns.logger.Info("Email resubscribed to newsletter", gecho.Field("email", email), gecho.Field("company_id", updated.LinkedCompanyId))

	result := &structs.ResubscribeResult{
		Success:   true,
		CompanyId: updated.LinkedCompanyId,
	}

	sent, warning, err := ns.notify(ctx, "resubscribe", updated,
		"Welcome back to our newsletter",
		"Welcome back! You have been resubscribed to our newsletter and will receive our updates again.",
	)
	if err != nil {
		ns.metrics.transition("resubscribe", "notification_failed")
		return nil, err
	}
	result.NotificationSent = sent
	result.Warning = warning

	ns.metrics.transition("resubscribe", "success")
	return result, nil
}

// VerifyToken describes the record behind token without changing it. Whatever token
// is currently stored verifies, including one written by Resubscribe.
func (ns *NewsletterService) VerifyToken(ctx context.Context, token string) (*structs.VerifyTokenResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, lib.NewValidationError("token", "is required")
	}

	record, err := ns.store.FindByToken(ctx, token)
	if errors.Is(err, lib.ErrNotFound) {
		ns.metrics.transition("verify", "invalid_token")
		return nil, lib.ErrInvalidToken
	}
	if err != nil {
		ns.logger.Error("Failed to verify token", gecho.Field("error", err))
		ns.metrics.transition("verify", "error")
		return nil, err
	}

	ns.metrics.transition("verify", "success")
	return &structs.VerifyTokenResult{
		Email:           record.Email,
		CompanyName:     ns.resolveCompanyName(ctx, record.LinkedCompanyId),
		UnsubscribeDate: record.UnsubscribeDate,
		IsSubscribed:    record.IsSubscribed,
	}, nil
}

// IsSubscribed reports whether email should receive the newsletter. It fails open:
// a missing record or a storage error both count as subscribed.
func (ns *NewsletterService) IsSubscribed(ctx context.Context, email string) bool {
	state, err := ns.store.Lookup(ctx, lib.NormalizeEmail(email))
	if err != nil {
		ns.logger.Warn("Subscription lookup failed, treating as subscribed", gecho.Field("error", err), gecho.Field("email", email))
		return true
	}
	return state != StateUnsubscribed
}

// Dispatch sends a newsletter to every recipient that has not opted out.
// Per-recipient send failures are collected instead of aborting the batch.
func (ns *NewsletterService) Dispatch(ctx context.Context, req *structs.DispatchRequest) *structs.DispatchResult {
	result := &structs.DispatchResult{
		Sent:    []string{},
		Skipped: []string{},
		Failed:  []string{},
	}
	seen := make(map[string]struct{}, len(req.Recipients))

	for _, recipient := range req.Recipients {
		email := lib.NormalizeEmail(recipient)
		if _, dup := seen[email]; dup || email == "" {
			continue
		}
		seen[email] = struct{}{}

		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, email)
			continue
		}

		if !ns.IsSubscribed(ctx, email) {
			result.Skipped = append(result.Skipped, email)
			continue
		}

		body := req.Body + "\n\nNo longer want these emails? Unsubscribe here: " + ns.unsubscribeLink(email)
		if err := ns.notifier.Send(ctx, email, req.Subject, body, nil); err != nil {
			ns.logger.Warn("Newsletter delivery failed", gecho.Field("error", err), gecho.Field("email", email))
			ns.metrics.notification("newsletter", "failed")
			result.Failed = append(result.Failed, email)
			continue
		}
		ns.metrics.notification("newsletter", "sent")
		result.Sent = append(result.Sent, email)
	}

	ns.logger.Info("Newsletter dispatched",
		gecho.Field("sent", len(result.Sent)),
		gecho.Field("skipped", len(result.Skipped)),
		gecho.Field("failed", len(result.Failed)),
	)
	return result
}

func (ns *NewsletterService) resolveCompanyName(ctx context.Context, companyID *uuid.UUID) string {
	if companyID == nil {
		return unknownCompanyName
	}
	name, err := ns.accounts.FindCompanyName(ctx, *companyID)
	if err != nil {
		ns.logger.Warn("Company lookup failed", gecho.Field("error", err), gecho.Field("company_id", companyID))
		return unknownCompanyName
	}
	if name == "" {
		return unknownCompanyName
	}
	return name
}

// notify sends the confirmation for a committed transition. In strict mode a failure is
// returned as ErrNotificationDelivery; otherwise it is logged and reported as a warning.
func (ns *NewsletterService) notify(ctx context.Context, kind string, record *tables.SubscriptionRecord, subject, body string) (bool, string, error) {
	err := ns.notifier.Send(ctx, record.Email, subject, body, record.LinkedCompanyId)
	if err == nil {
		ns.metrics.notification(kind, "sent")
		return true, "", nil
	}

	ns.metrics.notification(kind, "failed")
	if ns.cfg.Newsletter.StrictNotifications {
		ns.logger.Error("Confirmation email failed after state change was stored",
			gecho.Field("error", err),
			gecho.Field("email", record.Email),
			gecho.Field("operation", kind),
		)
		return false, "", fmt.Errorf("%w: %w", lib.ErrNotificationDelivery, err)
	}

	ns.logger.Warn("Confirmation email failed, change kept", gecho.Field("error", err), gecho.Field("email", record.Email), gecho.Field("operation", kind))
	return false, "confirmation email could not be sent", nil
}

func (ns *NewsletterService) unsubscribeBody(record *tables.SubscriptionRecord) string {
	return fmt.Sprintf(
		"You have been unsubscribed from our newsletter and will no longer receive it.\n\n"+
			"Changed your mind? You can resubscribe at any time using this link:\n%s",
		ns.resubscribeLink(record.Email, record.ResubscribeToken),
	)
}

func (ns *NewsletterService) resubscribeLink(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return strings.TrimRight(ns.cfg.Server.FrontendURL, "/") + "/newsletter/resubscribe?" + q.Encode()
}

func (ns *NewsletterService) unsubscribeLink(email string) string {
	q := url.Values{}
	q.Set("email", email)
	return strings.TrimRight(ns.cfg.Server.FrontendURL, "/") + "/newsletter/unsubscribe?" + q.Encode()
}
