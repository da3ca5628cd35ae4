package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-image/pkg/simpleimage"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleimage.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the images table and its indexes if they are missing
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "object_key") {
				return fmt.Errorf("image object already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return simpleimage.ErrImageNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const imageColumns = `id, owner_id, purpose, object_key, file_name, content_type,
               size, storage_backend_name, created_at`

func (r *Repository) CreateImage(ctx context.Context, image *simpleimage.Image) error {
	query := `
		INSERT INTO images (
			id, owner_id, purpose, object_key, file_name, content_type,
			size, storage_backend_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		image.ID, image.OwnerID, string(image.Purpose), image.ObjectKey,
		image.FileName, image.ContentType, image.Size,
		image.StorageBackendName, image.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create image", err)
	}

	return nil
}

func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*simpleimage.Image, error) {
	query := `
        SELECT ` + imageColumns + `
        FROM images WHERE id = $1 AND deleted_at IS NULL`

	image, err := scanImage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get image", err)
	}

	return image, nil
}

// ListImagesByOwner returns the owner's images, newest first
func (r *Repository) ListImagesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*simpleimage.Image, error) {
	query := `
        SELECT ` + imageColumns + `
        FROM images WHERE owner_id = $1 AND deleted_at IS NULL
        ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list images", err)
	}
	defer rows.Close()

	var images []*simpleimage.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, r.handlePostgresError("list images", err)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list images", err)
	}

	return images, nil
}

// DeleteImage soft-deletes the record by setting deleted_at
func (r *Repository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE images SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete image", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleimage.ErrImageNotFound
	}
	return nil
}

func scanImage(row pgx.Row) (*simpleimage.Image, error) {
	var image simpleimage.Image
	var purpose string
	err := row.Scan(
		&image.ID, &image.OwnerID, &purpose, &image.ObjectKey,
		&image.FileName, &image.ContentType, &image.Size,
		&image.StorageBackendName, &image.CreatedAt)
	if err != nil {
		return nil, err
	}
	image.Purpose = simpleimage.Purpose(purpose)
	return &image, nil
}
