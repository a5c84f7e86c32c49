// Package pgstore provides a PostgreSQL implementation of campaign.Store.
//
// Unlike the default in-memory store, answered reply ids and alert records
// survive a process restart, so a redeploy mid-campaign does not re-answer
// replies already handled.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/namanbnsl/CrisisNet/internal/campaign"
)

var tracer = otel.Tracer("github.com/namanbnsl/CrisisNet/internal/campaign/pgstore")

//go:embed schema.sql
var schema string

// Store persists campaign state in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Seen reports whether the reply id has been answered.
func (s *Store) Seen(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Seen", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM seen_replies WHERE reply_id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("seen lookup: %w", err)
	}
	return true, nil
}

// Mark records the reply id as answered. Marking an already-marked id is a
// no-op.
func (s *Store) Mark(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "pgstore.Mark", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO seen_replies (reply_id) VALUES ($1) ON CONFLICT (reply_id) DO NOTHING`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("mark reply: %w", err)
	}
	return nil
}

// PutAlert stores a broadcast alert record.
func (s *Store) PutAlert(ctx context.Context, rec *campaign.AlertRecord) error {
	ctx, span := tracer.Start(ctx, "pgstore.PutAlert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, lat, lng, radius_km, post_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Lat, rec.Lng, rec.RadiusKm, rec.PostID, rec.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("put alert: %w", err)
	}
	return nil
}

// LatestAlert returns the most recently created alert record.
func (s *Store) LatestAlert(ctx context.Context) (*campaign.AlertRecord, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.LatestAlert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var rec campaign.AlertRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, lat, lng, radius_km, post_id, created_at
		 FROM alerts ORDER BY created_at DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.Lat, &rec.Lng, &rec.RadiusKm, &rec.PostID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("latest alert: %w", err)
	}
	return &rec, true, nil
}
