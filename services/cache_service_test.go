package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableCacheError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"key not found", redis.Nil, false},
		{"canceled", context.Canceled, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"io timeout", errors.New("read tcp: i/o timeout"), true},
		{"wrong type", errors.New("WRONGTYPE Operation against a key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableCacheError(tt.err))
		})
	}
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := backoffWithJitter(attempt)
		full := min(100*(1<<attempt), 2000)
		assert.GreaterOrEqual(t, d, time.Duration(full/2)*time.Millisecond)
		assert.LessOrEqual(t, d, time.Duration(full)*time.Millisecond)
	}
}

func TestCompanyNameKey(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	assert.Equal(t, "company:name:0f8fad5b-d9cb-469f-a165-70867728950e", companyNameKey(id))
}
