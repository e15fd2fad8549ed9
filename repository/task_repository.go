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
	"taskTracker/internal/secret"
	"taskTracker/internal/sla"
	"taskTracker/models"
)

// TaskRepository is the core repository for Task entities. SLA metrics are
// never stored; models.Task derives them from the dates on read.
type TaskRepository struct {
	db     *sql.DB
	sealer secret.Sealer
	now    func() time.Time
}

// NewTaskRepository creates a TaskRepository that stores external secrets in
// clear. Use WithSealer to encrypt them at rest.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

// WithSealer encrypts external-system secrets with s on write.
func (r *TaskRepository) WithSealer(s secret.Sealer) *TaskRepository {
	r.sealer = s
	return r
}

// WithClock overrides the clock used for created_at.
func (r *TaskRepository) WithClock(now func() time.Time) *TaskRepository {
	r.now = now
	return r
}

// SealsSecrets reports whether external secrets are encrypted at rest.
func (r *TaskRepository) SealsSecrets() bool {
	return r.sealer != nil
}

const taskColumns = `t.id, t.title, t.category_id, t.person_id, t.status, t.due_at, t.completed_at, t.priority, t.remarks,
	t.external_system_id, t.external_system_secret, t.external_secret_sealed, t.completed_by_admin, t.proof_file, t.created_at,
	COALESCE(c.name, ''), COALESCE(p.name, '')`

const taskFrom = `FROM tasks t
	LEFT JOIN task_categories c ON c.id = t.category_id
	LEFT JOIN assigned_persons p ON p.id = t.person_id`

// Create validates and inserts a task, returning the stored row. Referenced
// category and person must exist; otherwise apperr.ErrNotFound is returned.
func (r *TaskRepository) Create(ctx context.Context, in models.NewTask) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.Invalid("title", "is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	secretValue, sealed := in.ExternalSecret, false
	if r.sealer != nil && in.ExternalSecret != "" {
		v, err := r.sealer.Seal(in.ExternalSecret)
		if err != nil {
			return nil, fmt.Errorf("seal external secret: %w", err)
		}
		secretValue, sealed = v, true
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if in.CategoryID != nil {
		if _, err := (nameTable{table: categoriesTable}).lookup(ctx, tx, *in.CategoryID); err != nil {
			return nil, err
		}
	}
	if in.PersonID != nil {
		if _, err := (nameTable{table: personsTable}).lookup(ctx, tx, *in.PersonID); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO tasks (title, category_id, person_id, status, due_at, completed_at, priority, remarks,
		external_system_id, external_system_secret, external_secret_sealed, completed_by_admin, proof_file, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		in.Title, in.CategoryID, in.PersonID, in.Status, formatDate(in.DueAt), formatDate(in.CompletedAt), in.Priority, in.Remarks,
		in.ExternalID, secretValue, sealed, in.CompletedByAdmin, in.ProofFile, r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("task reference: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("created task not found: id=%d", id)
	}
	return t, nil
}

// GetByID fetches a task by its ID. Returns nil, nil when absent.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	t, err := r.scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` `+taskFrom+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// List returns every task. Callers do any filtering or sorting; rows come
// back in insertion order.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` `+taskFrom+` ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Task
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TaskRepository) scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var categoryID, personID sql.NullInt64
	var dueAt, completedAt, proof sql.NullString
	var created string
	var sealed bool
	err := row.Scan(&t.ID, &t.Title, &categoryID, &personID, &t.Status, &dueAt, &completedAt, &t.Priority, &t.Remarks,
		&t.ExternalID, &t.ExternalSecret, &sealed, &t.CompletedByAdmin, &proof, &created,
		&t.CategoryName, &t.PersonName)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		v := categoryID.Int64
		t.CategoryID = &v
	}
	if personID.Valid {
		v := personID.Int64
		t.PersonID = &v
	}
	if proof.Valid {
		v := proof.String
		t.ProofFile = &v
	}
	if t.DueAt, err = parseDate(dueAt); err != nil {
		return nil, fmt.Errorf("task %d due_at: %w", t.ID, err)
	}
	if t.CompletedAt, err = parseDate(completedAt); err != nil {
		return nil, fmt.Errorf("task %d completed_at: %w", t.ID, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("task %d created_at: %w", t.ID, err)
	}
	if sealed {
		if r.sealer == nil {
			return nil, fmt.Errorf("task %d: external secret is sealed but no credential key is configured", t.ID)
		}
		if t.ExternalSecret, err = r.sealer.Open(t.ExternalSecret); err != nil {
			return nil, fmt.Errorf("task %d: %w", t.ID, err)
		}
	}
	return &t, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sla.DateLayout)
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := sla.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
