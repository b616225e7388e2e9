package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
)

// SessionRepo defines the persistence operations for login sessions.
type SessionRepo interface {
	// Create inserts a session and returns it with the DB-generated id.
	Create(ctx context.Context, s domain.Session) (domain.Session, error)

	// GetByID returns domain.ErrNotFound if the session does not exist.
	// Expired rows are returned as-is; the caller decides what expiry means.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error)

	// Delete removes a session. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes every session whose expires_at is not after now
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// pgSessionRepo is the Postgres implementation of SessionRepo.
type pgSessionRepo struct {
	db db
}

// NewSessionRepo constructs a SessionRepo backed by the provided db connection.
func NewSessionRepo(db db) SessionRepo {
	return &pgSessionRepo{db: db}
}

func (r *pgSessionRepo) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	const q = `
		INSERT INTO sessions (user_id, expires_at)
		VALUES (@user_id, @expires_at)
		RETURNING id, user_id, created_at, expires_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": s.UserID, "expires_at": s.ExpiresAt})
	result, err := scanSession(row)
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.Create: %w", mapError(err))
	}
	return result, nil
}

func (r *pgSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	const q = `
		SELECT id, user_id, created_at, expires_at
		FROM sessions
		WHERE id = @id`

	result, err := scanSession(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.GetByID: %w", mapError(err))
	}
	return result, nil
}

func (r *pgSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM sessions WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= @now`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, fmt.Errorf("repo.SessionRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanSession maps a single database row into a domain.Session.
func scanSession(s scanner) (domain.Session, error) {
	var (
		out    domain.Session
		id     pgtype.UUID
		userID pgtype.UUID
	)
	if err := s.Scan(&id, &userID, &out.CreatedAt, &out.ExpiresAt); err != nil {
		return domain.Session{}, err
	}
	out.ID = uuid.UUID(id.Bytes)
	out.UserID = uuid.UUID(userID.Bytes)
	return out, nil
}
