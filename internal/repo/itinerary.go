package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
)

// ItineraryRepo defines the persistence operations for itineraries and the
// itinerary_users link table.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type ItineraryRepo interface {
	// Create inserts a new itinerary linked to userID and returns the persisted
	// record. The row and the link are written in one transaction.
	Create(ctx context.Context, it domain.Itinerary, userID uuid.UUID) (domain.Itinerary, error)

	// GetByID retrieves a single itinerary, with its user ids, by primary key.
	// Returns domain.ErrNotFound if no itinerary with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Itinerary, error)

	// ListByUser returns the itineraries linked to userID ordered by
	// start_date, then created_at.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error)

	// Update overwrites the mutable fields of an existing itinerary and returns
	// the updated record. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, it domain.Itinerary) (domain.Itinerary, error)

	// Delete removes an itinerary and its links. Returns domain.ErrNotFound if
	// it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddUser links a user to an itinerary. Idempotent: no error if already linked.
	// Returns domain.ErrNotFound if either side does not exist.
	AddUser(ctx context.Context, itineraryID, userID uuid.UUID) error

	// RemoveUser unlinks a user from an itinerary.
	// Returns domain.ErrNotFound if the user is not linked.
	RemoveUser(ctx context.Context, itineraryID, userID uuid.UUID) error

	// ListUsers returns the users linked to an itinerary ordered by username.
	ListUsers(ctx context.Context, itineraryID uuid.UUID) ([]domain.User, error)
}

// pgItineraryRepo is the Postgres implementation of ItineraryRepo.
type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

// itineraryColumns selects an itinerary aliased as i, plus its linked user ids.
const itineraryColumns = `
		i.id, i.title, i.start_date, i.end_date, i.location, i.notes, i.created_at, i.updated_at,
		COALESCE(
			(SELECT array_agg(iu.user_id ORDER BY iu.user_id)
			 FROM itinerary_users iu
			 WHERE iu.itinerary_id = i.id),
			'{}'
		)`

// Create inserts the itinerary row and the creator's link.
func (r *pgItineraryRepo) Create(ctx context.Context, it domain.Itinerary, userID uuid.UUID) (domain.Itinerary, error) {
	const insert = `
		INSERT INTO itineraries (title, start_date, end_date, location, notes)
		VALUES (@title, @start_date, @end_date, @location, @notes)
		RETURNING id`
	const link = `
		INSERT INTO itinerary_users (itinerary_id, user_id)
		VALUES (@itinerary_id, @user_id)`

	var id pgtype.UUID
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		args := pgx.NamedArgs{
			"title":      it.Title,
			"start_date": it.StartDate,
			"end_date":   it.EndDate,
			"location":   it.Location,
			"notes":      it.Notes,
		}
		if err := tx.QueryRow(ctx, insert, args).Scan(&id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, link, pgx.NamedArgs{"itinerary_id": id, "user_id": userID})
		return err
	})
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", mapError(err))
	}

	result, err := r.GetByID(ctx, uuid.UUID(id.Bytes))
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an itinerary by primary key.
func (r *pgItineraryRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Itinerary, error) {
	q := `SELECT ` + itineraryColumns + `
		FROM itineraries i
		WHERE i.id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanItinerary(row)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.GetByID: %w", mapError(err))
	}
	return result, nil
}

// ListByUser returns the itineraries visible to userID.
func (r *pgItineraryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error) {
	q := `SELECT ` + itineraryColumns + `
		FROM itineraries i
		JOIN itinerary_users m ON m.itinerary_id = i.id
		WHERE m.user_id = @user_id
		ORDER BY i.start_date, i.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	itineraries := []domain.Itinerary{}
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListByUser: scan: %w", err)
		}
		itineraries = append(itineraries, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByUser: rows: %w", err)
	}
	return itineraries, nil
}

// Update overwrites the mutable fields of an itinerary and returns the updated record.
func (r *pgItineraryRepo) Update(ctx context.Context, it domain.Itinerary) (domain.Itinerary, error) {
	q := `
		WITH i AS (
			UPDATE itineraries
			SET title      = @title,
			    start_date = @start_date,
			    end_date   = @end_date,
			    location   = @location,
			    notes      = @notes,
			    updated_at = now()
			WHERE id = @id
			RETURNING *
		)
		SELECT ` + itineraryColumns + `
		FROM i`

	args := pgx.NamedArgs{
		"id":         it.ID,
		"title":      it.Title,
		"start_date": it.StartDate,
		"end_date":   it.EndDate,
		"location":   it.Location,
		"notes":      it.Notes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanItinerary(row)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", mapError(err))
	}
	return result, nil
}

// Delete removes an itinerary by primary key. Links go with it (ON DELETE CASCADE).
func (r *pgItineraryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM itineraries WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// AddUser links a user to an itinerary. Idempotent via ON CONFLICT DO NOTHING.
func (r *pgItineraryRepo) AddUser(ctx context.Context, itineraryID, userID uuid.UUID) error {
	const q = `
		INSERT INTO itinerary_users (itinerary_id, user_id)
		VALUES (@itinerary_id, @user_id)
		ON CONFLICT (itinerary_id, user_id) DO NOTHING`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"itinerary_id": itineraryID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.AddUser: %w", mapError(err))
	}
	return nil
}

// RemoveUser unlinks a user from an itinerary.
func (r *pgItineraryRepo) RemoveUser(ctx context.Context, itineraryID, userID uuid.UUID) error {
	const q = `
		DELETE FROM itinerary_users
		WHERE itinerary_id = @itinerary_id
		  AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"itinerary_id": itineraryID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.RemoveUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.RemoveUser: %w", domain.ErrNotFound)
	}
	return nil
}

// ListUsers returns the users linked to an itinerary, ordered by username.
func (r *pgItineraryRepo) ListUsers(ctx context.Context, itineraryID uuid.UUID) ([]domain.User, error) {
	const q = `
		SELECT u.id, u.username, u.password_hash, u.created_at
		FROM users u
		JOIN itinerary_users iu ON iu.user_id = u.id
		WHERE iu.itinerary_id = @itinerary_id
		ORDER BY u.username`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"itinerary_id": itineraryID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListUsers: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListUsers: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListUsers: rows: %w", err)
	}
	return users, nil
}

// scanItinerary maps a row selected with itineraryColumns into a domain.Itinerary.
// It handles the UUID, date, and uuid[] conversions.
func scanItinerary(s scanner) (domain.Itinerary, error) {
	var (
		it        domain.Itinerary
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
		userIDs   []pgtype.UUID
	)

	err := s.Scan(&id, &it.Title, &startDate, &endDate, &it.Location, &it.Notes,
		&it.CreatedAt, &it.UpdatedAt, &userIDs)
	if err != nil {
		return domain.Itinerary{}, err
	}

	it.ID = uuid.UUID(id.Bytes)
	it.StartDate = startDate.Time
	it.EndDate = endDate.Time
	it.UserIDs = make([]uuid.UUID, 0, len(userIDs))
	for _, u := range userIDs {
		it.UserIDs = append(it.UserIDs, uuid.UUID(u.Bytes))
	}
	return it, nil
}
