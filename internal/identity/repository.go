package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Repository defines persistence operations for identities.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
	ListAll(ctx context.Context) ([]Identity, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const identityColumns = `id, email, name, password_hash, role, employment_type,
onboarding_status, pto_vacation_hours, pto_sick_hours, pto_personal_hours,
is_active, last_login_at, created_at, updated_at`

// FindByEmail fetches an identity by its folded email address.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = $1`,
		shared.NormalizeEmail(email))
	return scanIdentity(row)
}

// GetByID fetches an identity by id.
func (r *PGRepository) GetByID(ctx context.Context, id string) (*Identity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	return scanIdentity(row)
}

// ListAll returns all identities ordered by email.
func (r *PGRepository) ListAll(ctx context.Context) ([]Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+identityColumns+` FROM identities ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ident)
	}
	return out, rows.Err()
}

// TouchLastLogin records a successful login. Last write wins; concurrent
// logins by the same identity need no ordering.
func (r *PGRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE identities SET last_login_at = $2, updated_at = now() WHERE id = $1`,
		id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		ident     Identity
		lastLogin pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&ident.ID, &ident.Email, &ident.Name, &ident.PasswordHash,
		&ident.Role, &ident.EmploymentType, &ident.OnboardingStatus,
		&ident.PTO.Vacation, &ident.PTO.Sick, &ident.PTO.Personal,
		&ident.IsActive, &lastLogin, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		ident.LastLoginAt = &t
	}
	ident.CreatedAt = createdAt.Time
	ident.UpdatedAt = updatedAt.Time
	return &ident, nil
}

var _ Repository = (*PGRepository)(nil)
