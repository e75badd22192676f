package persistence

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/loan-service/internal/config"
)

func TestPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new postgres: %v", err)
	}
	defer pg.Close()

	if pg.PoolHandle() != nil {
		t.Error("expected no pool without a DSN")
	}
	if err := pg.Ping(context.Background()); err == nil {
		t.Error("ping must fail when no pool is configured")
	}
}

func TestPostgresPingNilReceiver(t *testing.T) {
	var pg *Postgres
	if err := pg.Ping(context.Background()); err == nil {
		t.Error("nil receiver ping must return an error")
	}
}

func TestRedisPingNilReceiver(t *testing.T) {
	var r *Redis
	if err := r.Ping(context.Background()); err == nil {
		t.Error("nil receiver ping must return an error")
	}
}
