package repository

import (
	"context"

	"taskTracker/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// CategoryRepositoryI defines operations on the task category vocabulary.
type CategoryRepositoryI interface {
	Create(ctx context.Context, name string) (*models.TaskCategory, error)
	GetByID(ctx context.Context, id int64) (*models.TaskCategory, error)
	List(ctx context.Context) ([]models.TaskCategory, error)
}

// PersonRepositoryI defines operations on the assignable person vocabulary.
type PersonRepositoryI interface {
	Create(ctx context.Context, name string) (*models.AssignedPerson, error)
	GetByID(ctx context.Context, id int64) (*models.AssignedPerson, error)
	List(ctx context.Context) ([]models.AssignedPerson, error)
}

// TaskRepositoryI defines operations on Task entities. There is no update or
// delete: tasks are append-only.
type TaskRepositoryI interface {
	Create(ctx context.Context, in models.NewTask) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
}

var (
	_ UserRepositoryI     = (*UserRepository)(nil)
	_ CategoryRepositoryI = (*CategoryRepository)(nil)
	_ PersonRepositoryI   = (*PersonRepository)(nil)
	_ TaskRepositoryI     = (*TaskRepository)(nil)
)
