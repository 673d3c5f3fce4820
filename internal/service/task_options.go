package service

import "taskManager/internal/models/task"

// TaskOption — функция точечной правки задачи при обновлении.
// Невалидные значения дают nil-опцию, сервис такие пропускает.
type TaskOption func(*task.Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(t *task.Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *task.Task) {
		t.Description = description
	}
}

func WithEstimatedHours(hours float64) TaskOption {
	if hours <= 0 {
		return nil
	}
	return func(t *task.Task) {
		t.EstimatedHours = hours
	}
}

func WithAssignedTo(email string) TaskOption {
	if email == "" {
		return nil
	}
	return func(t *task.Task) {
		t.AssignedTo = email
	}
}

func WithPriority(priority task.Priority) TaskOption {
	if !priority.Valid() {
		return nil
	}
	return func(t *task.Task) {
		t.Priority = priority
	}
}
