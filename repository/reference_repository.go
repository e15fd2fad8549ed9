package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskTracker/internal/apperr"
	"taskTracker/internal/db"
	"taskTracker/models"
)

// nameTable is the shared shape of both reference vocabularies:
// an id and a unique, non-empty name.
type nameTable struct {
	db    *sql.DB
	table string
}

const (
	categoriesTable = "task_categories"
	personsTable    = "assigned_persons"
)

type nameRow struct {
	id   int64
	name string
}

func (t nameTable) create(ctx context.Context, name string) (nameRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nameRow{}, apperr.Invalid("name", "is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := t.db.ExecContext(ctx, `INSERT INTO `+t.table+` (name) VALUES (?)`, name)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nameRow{}, fmt.Errorf("%q: %w", name, apperr.ErrDuplicateName)
		}
		return nameRow{}, fmt.Errorf("insert into %s: %w", t.table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nameRow{}, err
	}
	return nameRow{id: id, name: name}, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (t nameTable) get(ctx context.Context, id int64) (*nameRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return t.lookup(ctx, t.db, id)
}

// lookup fetches a row through q, so task creation can check references
// inside its own transaction. A missing row yields apperr.ErrNotFound.
func (t nameTable) lookup(ctx context.Context, q queryer, id int64) (*nameRow, error) {
	var r nameRow
	err := q.QueryRowContext(ctx, `SELECT id, name FROM `+t.table+` WHERE id = ?`, id).Scan(&r.id, &r.name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", t.table, id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &r, nil
}

func (t nameTable) list(ctx context.Context) ([]nameRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := t.db.QueryContext(ctx, `SELECT id, name FROM `+t.table+` ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []nameRow
	for rows.Next() {
		var r nameRow
		if err := rows.Scan(&r.id, &r.name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CategoryRepository stores the task category vocabulary.
type CategoryRepository struct {
	t nameTable
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{t: nameTable{db: db, table: categoriesTable}}
}

// Create inserts a category. Returns apperr.ErrDuplicateName on collision.
func (r *CategoryRepository) Create(ctx context.Context, name string) (*models.TaskCategory, error) {
	row, err := r.t.create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &models.TaskCategory{ID: row.id, Name: row.name}, nil
}

// GetByID returns apperr.ErrNotFound when absent.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.TaskCategory, error) {
	row, err := r.t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TaskCategory{ID: row.id, Name: row.name}, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.TaskCategory, error) {
	rows, err := r.t.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.TaskCategory, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.TaskCategory{ID: row.id, Name: row.name})
	}
	return out, nil
}

// PersonRepository stores the assignable person vocabulary.
type PersonRepository struct {
	t nameTable
}

func NewPersonRepository(db *sql.DB) *PersonRepository {
	return &PersonRepository{t: nameTable{db: db, table: personsTable}}
}

// Create inserts a person. Returns apperr.ErrDuplicateName on collision.
func (r *PersonRepository) Create(ctx context.Context, name string) (*models.AssignedPerson, error) {
	row, err := r.t.create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &models.AssignedPerson{ID: row.id, Name: row.name}, nil
}

// GetByID returns apperr.ErrNotFound when absent.
func (r *PersonRepository) GetByID(ctx context.Context, id int64) (*models.AssignedPerson, error) {
	row, err := r.t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.AssignedPerson{ID: row.id, Name: row.name}, nil
}

func (r *PersonRepository) List(ctx context.Context) ([]models.AssignedPerson, error) {
	rows, err := r.t.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AssignedPerson, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.AssignedPerson{ID: row.id, Name: row.name})
	}
	return out, nil
}
