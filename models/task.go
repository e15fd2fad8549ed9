package models

import (
	"time"

	"taskTracker/internal/sla"
)

// Task is a tracked piece of work. DueAt and CompletedAt are calendar dates
// (UTC midnight); CreatedAt is assigned by the store.
type Task struct {
	ID               int64      `db:"id" json:"id"`
	Title            string     `db:"title" json:"title"`
	CategoryID       *int64     `db:"category_id" json:"category_id,omitempty"`
	PersonID         *int64     `db:"person_id" json:"person_id,omitempty"`
	Status           string     `db:"status" json:"status"`
	DueAt            *time.Time `db:"due_at" json:"due_at,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Priority         string     `db:"priority" json:"priority"`
	Remarks          string     `db:"remarks" json:"remarks"`
	ExternalID       string     `db:"external_system_id" json:"external_system_id"`
	ExternalSecret   string     `db:"external_system_secret" json:"-"`
	CompletedByAdmin string     `db:"completed_by_admin" json:"completed_by_admin"`
	ProofFile        *string    `db:"proof_file" json:"proof_file,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`

	// Joined for display; empty when the reference is unset.
	CategoryName string `json:"category_name,omitempty"`
	PersonName   string `json:"person_name,omitempty"`
}

// SLA derives the task's SLA metrics from its stored dates.
func (t *Task) SLA() sla.Metrics {
	return sla.Compute(t.CreatedAt, t.DueAt, t.CompletedAt)
}

// NewTask carries the caller-supplied fields of a task to be created.
// Only Title is required.
type NewTask struct {
	Title            string
	CategoryID       *int64
	PersonID         *int64
	Status           string
	DueAt            *time.Time
	CompletedAt      *time.Time
	Priority         string
	Remarks          string
	ExternalID       string
	ExternalSecret   string
	CompletedByAdmin string
	ProofFile        *string
}
