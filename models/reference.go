package models

// TaskCategory is one entry of the task type vocabulary.
type TaskCategory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// AssignedPerson is one entry of the assignable person vocabulary.
type AssignedPerson struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
