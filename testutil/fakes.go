package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"newsletter_server/lib"
	"newsletter_server/services"
	"newsletter_server/structs/tables"

	"github.com/google/uuid"
)

// MemoryStore is a services.SubscriptionStore kept in a map keyed by email.
// Setting Err makes every call fail with it.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*tables.SubscriptionRecord
	Err     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*tables.SubscriptionRecord)}
}

func (s *MemoryStore) UpsertUnsubscribe(ctx context.Context, params services.UnsubscribeParams) (*tables.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	now := time.Now().UTC()
	at := params.At
	record, ok := s.records[params.Email]
	if !ok {
		record = &tables.SubscriptionRecord{Id: uuid.New(), Email: params.Email, CreatedAt: now}
		s.records[params.Email] = record
	}
	record.LinkedUserId = params.LinkedUserId
	record.LinkedCompanyId = params.LinkedCompanyId
	record.IsSubscribed = false
	record.UnsubscribeReason = strings.TrimSpace(params.Reason)
	if record.UnsubscribeReason == "" {
		record.UnsubscribeReason = services.DefaultUnsubscribeReason
	}
	record.UnsubscribeDate = &at
	record.ResubscribeToken = params.Token
	record.UpdatedAt = now

	out := *record
	return &out, nil
}

func (s *MemoryStore) FindByEmailAndToken(ctx context.Context, email, token string) (*tables.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	record, ok := s.records[email]
	if !ok || record.ResubscribeToken != token {
		return nil, lib.ErrNotFound
	}
	out := *record
	return &out, nil
}

func (s *MemoryStore) FindByToken(ctx context.Context, token string) (*tables.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, record := range s.records {
		if record.ResubscribeToken == token {
			out := *record
			return &out, nil
		}
	}
	return nil, lib.ErrNotFound
}

func (s *MemoryStore) MarkResubscribed(ctx context.Context, record *tables.SubscriptionRecord, newToken string, at time.Time) (*tables.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	stored, ok := s.records[record.Email]
	if ok && stored.IsSubscribed && stored.ResubscribeToken == newToken {
		out := *stored
		return &out, nil
	}
	if !ok || stored.ResubscribeToken != record.ResubscribeToken {
		return nil, lib.ErrInvalidToken
	}
	stored.IsSubscribed = true
	stored.ResubscribeDate = &at
	stored.ResubscribeToken = newToken
	stored.UpdatedAt = time.Now().UTC()

	out := *stored
	return &out, nil
}

func (s *MemoryStore) Lookup(ctx context.Context, email string) (services.SubscriptionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return services.StateNoRecord, s.Err
	}

	record, ok := s.records[email]
	if !ok {
		return services.StateNoRecord, nil
	}
	if record.IsSubscribed {
		return services.StateSubscribed, nil
	}
	return services.StateUnsubscribed, nil
}

// Get returns a copy of the stored record for email.
func (s *MemoryStore) Get(email string) (tables.SubscriptionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[email]
	if !ok {
		return tables.SubscriptionRecord{}, false
	}
	return *record, true
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// StaticDirectory is a services.AccountDirectory over fixed users and companies.
type StaticDirectory struct {
	Users     map[string]*tables.User
	Companies map[uuid.UUID]string
	Err       error
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		Users:     make(map[string]*tables.User),
		Companies: make(map[uuid.UUID]string),
	}
}

// AddUser registers a user under a new company called companyName. An empty
// companyName leaves the user without a company.
func (d *StaticDirectory) AddUser(email, companyName string) *tables.User {
	user := &tables.User{Id: uuid.New(), Email: email, CreatedAt: time.Now().UTC()}
	if companyName != "" {
		companyID := uuid.New()
		d.Companies[companyID] = companyName
		user.CompanyId = &companyID
	}
	d.Users[strings.ToLower(email)] = user
	return user
}

func (d *StaticDirectory) FindUserByEmail(ctx context.Context, email string) (*tables.User, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Users[strings.ToLower(email)], nil
}

func (d *StaticDirectory) FindCompanyName(ctx context.Context, id uuid.UUID) (string, error) {
	if d.Err != nil {
		return "", d.Err
	}
	return d.Companies[id], nil
}

type SentEmail struct {
	To        string
	Subject   string
	Body      string
	CompanyID *uuid.UUID
}

// RecordingNotifier records every send. Err fails all sends, FailFor only the listed recipients.
type RecordingNotifier struct {
	mu      sync.Mutex
	Sent    []SentEmail
	Err     error
	FailFor map[string]error
}

func (n *RecordingNotifier) Send(ctx context.Context, to, subject, bodyText string, companyID *uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	if err, ok := n.FailFor[to]; ok {
		return err
	}
	n.Sent = append(n.Sent, SentEmail{To: to, Subject: subject, Body: bodyText, CompanyID: companyID})
	return nil
}

func (n *RecordingNotifier) Emails() []SentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentEmail(nil), n.Sent...)
}

// CountingLimiter is a middleware.RateCounter backed by a map.
type CountingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Err    error
}

func (c *CountingLimiter) IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	key := ip + ":" + endpoint
	c.counts[key]++
	return c.counts[key], nil
}
