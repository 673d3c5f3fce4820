package service

import (
	"context"

	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
)

type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByKey(ctx context.Context, title, assignedTo string) (*task.Task, error)
	GetAll(ctx context.Context, filter task.Filter, sortBy task.Sort) ([]*task.Task, error)
	GetOpenStarted(ctx context.Context, limit int) ([]*task.Task, error)
	DeleteByTitle(ctx context.Context, title string) error
	HealthCheck(ctx context.Context) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByEmails(ctx context.Context, emails []string) ([]*user.User, error)
	Seed(ctx context.Context) error
}
