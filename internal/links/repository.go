package links

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/database"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicate        = errors.New("category already exists")
)

// Filter narrows a link listing. Empty fields match everything.
type Filter struct {
	Location string
	Category string
}

// Repository handles links and categories.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a links repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns links matching f, ordered by title. Links without a category
// report it as models.UncategorizedName and match that name in the filter.
func (r *Repository) List(ctx context.Context, f Filter) ([]*models.Link, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Location != "" {
		args = append(args, f.Location)
		where = append(where, fmt.Sprintf("l.location = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category, models.UncategorizedName)
		where = append(where, fmt.Sprintf("COALESCE(c.name, $%d) = $%d", len(args), len(args)-1))
	}
	query := `SELECT l.id, l.title, l.description, l.url, l.location, l.category_id, c.name
		FROM links l LEFT JOIN categories c ON c.id = l.category_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY l.title ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Link{}
	for rows.Next() {
		var (
			l    models.Link
			name *string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.URL, &l.Location, &l.CategoryID, &name); err != nil {
			return nil, err
		}
		l.Category = categoryOf(l.CategoryID, name)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Create inserts a link. A category id that does not exist yields ErrCategoryNotFound.
func (r *Repository) Create(ctx context.Context, l *models.Link) error {
	var name *string
	if l.CategoryID != nil {
		err := r.pool.QueryRow(ctx, `SELECT name FROM categories WHERE id = $1`, *l.CategoryID).Scan(&name)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return err
		}
	}
	const query = `INSERT INTO links (title, description, url, location, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.pool.QueryRow(ctx, query, l.Title, l.Description, l.URL, l.Location, l.CategoryID).Scan(&l.ID); err != nil {
		return err
	}
	l.Category = categoryOf(l.CategoryID, name)
	return nil
}

// ListCategories returns all categories by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category. Names are unique.
func (r *Repository) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c := models.Category{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if database.IsUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func categoryOf(id *uuid.UUID, name *string) models.Category {
	if id == nil || name == nil {
		return models.Category{Name: models.UncategorizedName}
	}
	return models.Category{ID: *id, Name: *name}
}
