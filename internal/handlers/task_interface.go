package handlers

import (
	"context"

	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/service"
)

type TaskService interface {
	CreateTask(ctx context.Context, p service.CreateTaskParams) (*task.Task, error)
	ChangeStatus(ctx context.Context, title, assignedTo string, requested task.Status, role user.Role) (*task.Task, error)
	ListTasks(ctx context.Context, filter task.Filter, sortBy task.Sort, viewer user.Role) ([]service.TaskView, error)
	UpdateTask(ctx context.Context, title, assignedTo string, options ...service.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, title string) error
	HealthCheck(ctx context.Context) error
}
