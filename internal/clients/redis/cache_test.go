package redis

import (
	"testing"

	"github.com/yungbote/givebridge-backend/internal/logger"
)

func TestNewCache_AddressComesFromCaller(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	// The environment must not be able to stand in for a missing address.
	t.Setenv("REDIS_ADDR", "localhost:6379")

	if _, err := NewCache(log, ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
	if _, err := NewCache(log, "   "); err == nil {
		t.Fatalf("expected error for blank address")
	}
}

func TestNewCache_RequiresLogger(t *testing.T) {
	if _, err := NewCache(nil, "localhost:6379"); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}
