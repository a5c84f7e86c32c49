package postgres

import (
	"context"
	"testing"
	"time"
)

func TestNewPool_InvalidURL(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := NewPool(ctx, "not-a-url\x00"); err == nil {
		t.Fatal("expected error for malformed database url")
	}
}

func TestNewPool_UnreachableHost(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Reserved TEST-NET-1 address; the ping must fail fast via the context.
	_, err := NewPool(ctx, "postgres://user:pw@192.0.2.1:5432/db?connect_timeout=1")
	if err == nil {
		t.Fatal("expected error for unreachable database")
	}
}
