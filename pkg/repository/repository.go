// Package repository is the source of truth for property records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pario-ai/listings/pkg/events"
	"github.com/pario-ai/listings/pkg/models"
)

var (
	// ErrRepository marks persistence failures (unreachable database, failed query).
	ErrRepository = errors.New("repository error")
	// ErrNotFound is returned for unknown property ids.
	ErrNotFound = errors.New("property not found")
	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid property")
)

// Repository stores and queries property records.
type Repository interface {
	// ListAll returns every property, newest first.
	ListAll(ctx context.Context) ([]models.Property, error)
	// Get returns a single property.
	Get(ctx context.Context, id string) (models.Property, error)
	// Create inserts a property and publishes RecordWritten before returning.
	Create(ctx context.Context, in models.PropertyInput) (models.Property, error)
	// Update replaces the mutable fields of a property and publishes RecordWritten.
	Update(ctx context.Context, id string, in models.PropertyInput) (models.Property, error)
	// Delete removes a property and publishes RecordDeleted.
	Delete(ctx context.Context, id string) error
	// Close releases resources.
	Close() error
}

// SQLiteRepository implements Repository with a SQLite database.
//
// Mutations commit first and then publish on the bus. If a handler fails the
// mutation is reported as failed even though the row change is durable; the
// caller must not treat it as acknowledged.
type SQLiteRepository struct {
	db       *sql.DB
	bus      *events.Bus
	validate *validator.Validate
	now      func() time.Time
}

const createTable = `
CREATE TABLE IF NOT EXISTS properties (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
	location TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_properties_created ON properties(created_at DESC, seq DESC);
`

// New opens the database at dbPath, runs auto-migration and publishes
// mutation events on bus (which may be nil).
func New(dbPath string, bus *events.Bus) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open repository db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate repository db: %w", err)
	}

	return &SQLiteRepository{
		db:       db,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}, nil
}

const selectColumns = `SELECT id, title, description, price_cents, location, created_at FROM properties`

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (models.Property, error) {
	var p models.Property
	var cents, createdAt int64
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &cents, &p.Location, &createdAt); err != nil {
		return models.Property{}, err
	}
	p.Price = models.Price(cents)
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	return p, nil
}

// ListAll returns every property ordered by created_at descending.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.Property, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list properties: %v", ErrRepository, err)
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan property: %v", ErrRepository, err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list properties: %v", ErrRepository, err)
	}
	return properties, nil
}

// Get returns the property with the given id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (models.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Property{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Property{}, fmt.Errorf("%w: get property: %v", ErrRepository, err)
	}
	return p, nil
}

// Create validates and inserts a property, then publishes RecordWritten.
func (r *SQLiteRepository) Create(ctx context.Context, in models.PropertyInput) (models.Property, error) {
	if err := r.validate.Struct(in); err != nil {
		return models.Property{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	p := models.Property{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Location:    in.Location,
		CreatedAt:   r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (id, title, description, price_cents, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Price.Cents(), p.Location, p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return models.Property{}, fmt.Errorf("%w: insert property: %v", ErrRepository, err)
	}

	if err := r.bus.Publish(ctx, events.Event{Kind: events.RecordWritten, RecordID: p.ID}); err != nil {
		return models.Property{}, fmt.Errorf("create property %s: %w", p.ID, err)
	}
	return p, nil
}

// Update replaces title, description, price and location. created_at is immutable.
func (r *SQLiteRepository) Update(ctx context.Context, id string, in models.PropertyInput) (models.Property, error) {
	if err := r.validate.Struct(in); err != nil {
		return models.Property{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE properties SET title = ?, description = ?, price_cents = ?, location = ?
		 WHERE id = ? RETURNING created_at`,
		in.Title, in.Description, in.Price.Cents(), in.Location, id,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Property{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Property{}, fmt.Errorf("%w: update property: %v", ErrRepository, err)
	}

	if err := r.bus.Publish(ctx, events.Event{Kind: events.RecordWritten, RecordID: id}); err != nil {
		return models.Property{}, fmt.Errorf("update property %s: %w", id, err)
	}
	return models.Property{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Location:    in.Location,
		CreatedAt:   time.Unix(0, createdAt).UTC(),
	}, nil
}

// Delete removes a property, then publishes RecordDeleted.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete property: %v", ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete property: %v", ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := r.bus.Publish(ctx, events.Event{Kind: events.RecordDeleted, RecordID: id}); err != nil {
		return fmt.Errorf("delete property %s: %w", id, err)
	}
	return nil
}

// Close releases the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
