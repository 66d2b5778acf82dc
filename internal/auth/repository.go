package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/database"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email already registered")
)

// Repository handles user persistence, including the admin and member extension rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, err
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

// GetProfile returns the public profile of a user, with office fields for admins.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	const q = `SELECT u.id, u.name, u.email, u.role, u.created_at,
		a.user_id IS NOT NULL, COALESCE(a.office_number,''), COALESCE(a.office_hours,''), COALESCE(a.office_location,'')
		FROM users u LEFT JOIN admins a ON a.user_id = u.id WHERE u.id = $1`
	var (
		p       models.UserPublic
		role    string
		isAdmin bool
		office  models.AdminProfile
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Email, &role, &p.CreatedAt,
		&isAdmin, &office.OfficeNumber, &office.OfficeHours, &office.OfficeLocation)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	p.Role = models.Role(role)
	if isAdmin {
		p.Admin = &office
	}
	return &p, nil
}

// List returns all users for the admin directory.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, role, created_at FROM users ORDER BY name, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = models.Role(role)
		list = append(list, u)
	}
	return list, rows.Err()
}

func insertUser(ctx context.Context, tx pgx.Tx, name, email, hash string, role models.Role) (*models.User, error) {
	u, err := scanUser(tx.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		name, email, hash, string(role)))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// CreateMember inserts a user with role MEMBER and its member row in one transaction.
func (r *Repository) CreateMember(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	var user *models.User
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := insertUser(ctx, tx, name, email, passwordHash, models.RoleMember)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO members (user_id) VALUES ($1)`, u.ID); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		user = u
		return nil
	})
	return user, err
}

// CreateAdmin inserts a user with role ADMIN and its admin row in one transaction.
func (r *Repository) CreateAdmin(ctx context.Context, name, email, passwordHash string, profile models.AdminProfile) (*models.User, error) {
	var user *models.User
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := insertUser(ctx, tx, name, email, passwordHash, models.RoleAdmin)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO admins (user_id, office_number, office_hours, office_location, creator_code)
			VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), $5)`,
			u.ID, profile.OfficeNumber, profile.OfficeHours, profile.OfficeLocation, profile.CreatorCode)
		if err != nil {
			return fmt.Errorf("insert admin: %w", err)
		}
		user = u
		return nil
	})
	return user, err
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate holds the optional fields of a profile edit. Nil means unchanged.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	OfficeNumber   *string
	OfficeHours    *string
	OfficeLocation *string
}

// UpdateProfile applies a partial profile edit. Office fields only touch the admin row.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET
			name = COALESCE($2, name), email = COALESCE($3, email), updated_at = NOW()
			WHERE id = $1`, id, upd.Name, upd.Email)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("update user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if upd.OfficeNumber == nil && upd.OfficeHours == nil && upd.OfficeLocation == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE admins SET
			office_number = COALESCE($2, office_number),
			office_hours = COALESCE($3, office_hours),
			office_location = COALESCE($4, office_location)
			WHERE user_id = $1`, id, upd.OfficeNumber, upd.OfficeHours, upd.OfficeLocation)
		if err != nil {
			return fmt.Errorf("update admin profile: %w", err)
		}
		return nil
	})
}

// Delete removes the role extension row and then the user, in one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("delete admin row: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM members WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("delete member row: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
