package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hemoscan/internal/domain"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository define el contrato de persistencia para usuarios.
// Cada operacion es atomica sobre un unico documento, identificado por email
// o por el hash del token de reseteo.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// ConsumeResetToken borra el token de reseteo si coincide y sigue vigente
	// en now, y devuelve el usuario. Dos consumos del mismo token no pueden
	// tener exito ambos.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	SetRefreshToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, email string) error
	SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
}

// Pinger lo implementan los stores que exponen un chequeo de salud.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const pgUniqueViolation = "23505"

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, password_hash, refresh_token_hash, refresh_token_expires_at,
		       reset_token_hash, reset_token_expires_at, created_at
		FROM users
		WHERE email = $1
	`
	return r.getOne(ctx, query, email)
}

func (r *PgUserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, ErrNotFound
	}
	const query = `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
		RETURNING id, email, password_hash, refresh_token_hash, refresh_token_expires_at,
		          reset_token_hash, reset_token_expires_at, created_at
	`
	return r.getOne(ctx, query, tokenHash, now.UTC())
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var (
		u           domain.User
		refreshHash *string
		resetHash   *string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&refreshHash,
		&u.RefreshTokenExpiresAt,
		&resetHash,
		&u.ResetTokenExpiresAt,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if refreshHash != nil {
		u.RefreshTokenHash = *refreshHash
	}
	if resetHash != nil {
		u.ResetTokenHash = *resetHash
	}
	return u, nil
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE email = $1`
	return r.execOne(ctx, query, email, passwordHash)
}

func (r *PgUserRepository) SetRefreshToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET refresh_token_hash = $2, refresh_token_expires_at = $3
		WHERE email = $1
	`
	return r.execOne(ctx, query, email, tokenHash, expiresAt.UTC())
}

func (r *PgUserRepository) ClearRefreshToken(ctx context.Context, email string) error {
	const query = `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL
		WHERE email = $1
	`
	return r.execOne(ctx, query, email)
}

func (r *PgUserRepository) SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3
		WHERE email = $1
	`
	return r.execOne(ctx, query, email, tokenHash, expiresAt.UTC())
}

func (r *PgUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
