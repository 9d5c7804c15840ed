package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateEmail is returned when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// IdentityRecord is the provider-side account row.
type IdentityRecord struct {
	ID                string
	Email             string
	PasswordHash      string
	DisplayName       string
	PhotoURL          string
	EmailVerified     bool
	VerificationToken *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IdentityRepository defines persistence access for provider identities.
type IdentityRepository interface {
	Create(ctx context.Context, record *IdentityRecord) error
	GetByID(ctx context.Context, id string) (*IdentityRecord, error)
	GetByEmail(ctx context.Context, email string) (*IdentityRecord, error)
	UpdateProfile(ctx context.Context, id, displayName, photoURL string) error
	SetVerificationToken(ctx context.Context, id, token string) error
	MarkVerified(ctx context.Context, token string) (*IdentityRecord, error)
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) Create(ctx context.Context, record *IdentityRecord) error {
	const query = `
        INSERT INTO identities (email, password_hash, display_name, photo_url)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		record.Email,
		record.PasswordHash,
		record.DisplayName,
		record.PhotoURL,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*IdentityRecord, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*IdentityRecord, error) {
	return r.get(ctx, `WHERE email=$1`, email)
}

func (r *identityRepository) get(ctx context.Context, where string, arg any) (*IdentityRecord, error) {
	query := `
        SELECT id, email, password_hash, display_name, photo_url,
               email_verified, verification_token, created_at, updated_at
        FROM identities ` + where

	var record IdentityRecord
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&record.ID,
		&record.Email,
		&record.PasswordHash,
		&record.DisplayName,
		&record.PhotoURL,
		&record.EmailVerified,
		&record.VerificationToken,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *identityRepository) UpdateProfile(ctx context.Context, id, displayName, photoURL string) error {
	const query = `
        UPDATE identities SET display_name=$1, photo_url=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, displayName, photoURL, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *identityRepository) SetVerificationToken(ctx context.Context, id, token string) error {
	const query = `
        UPDATE identities SET verification_token=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, token, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *identityRepository) MarkVerified(ctx context.Context, token string) (*IdentityRecord, error) {
	const query = `
        UPDATE identities
        SET email_verified=TRUE, verification_token=NULL, updated_at=NOW()
        WHERE verification_token=$1
        RETURNING id, email, password_hash, display_name, photo_url,
                  email_verified, verification_token, created_at, updated_at`

	var record IdentityRecord
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&record.ID,
		&record.Email,
		&record.PasswordHash,
		&record.DisplayName,
		&record.PhotoURL,
		&record.EmailVerified,
		&record.VerificationToken,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}
