package structs

import (
	"time"

	"github.com/google/uuid"
)

type UnsubscribeRequest struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Reason string `json:"reason" validate:"max=1000"`
}

type ResubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Token string `json:"token" validate:"required,max=256"`
}

type DispatchRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,max=500,dive,required,email"`
	Subject    string   `json:"subject" validate:"required,max=200"`
	Body       string   `json:"body" validate:"required"`
}

type UnsubscribeResult struct {
	Success          bool       `json:"success"`
	CompanyId        *uuid.UUID `json:"companyId,omitempty"`
	ResubscribeToken string     `json:"resubscribeToken"`
	NotificationSent bool       `json:"notificationSent"`
	Warning          string     `json:"warning,omitempty"`
}

type ResubscribeResult struct {
	Success          bool       `json:"success"`
	CompanyId        *uuid.UUID `json:"companyId,omitempty"`
	NotificationSent bool       `json:"notificationSent"`
	Warning          string     `json:"warning,omitempty"`
}

type VerifyTokenResult struct {
	Email           string     `json:"email"`
	CompanyName     string     `json:"companyName"`
	UnsubscribeDate *time.Time `json:"unsubscribeDate"`
	IsSubscribed    bool       `json:"isSubscribed"`
}

type DispatchResult struct {
	Sent    []string `json:"sent"`
	Skipped []string `json:"skipped"`
	Failed  []string `json:"failed"`
}
