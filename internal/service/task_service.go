package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/notify"
	rep "taskManager/internal/repository"
)

// здесь живёт бизнес-логика: создание, списки, переходы статусов

type TaskService struct {
	repo   TaskRepository
	users  UserRepository
	sender notify.Sender
	clock  func() time.Time
}

func NewTaskService(repo TaskRepository, users UserRepository, sender notify.Sender) TaskService {
	return TaskService{
		repo:   repo,
		users:  users,
		sender: sender,
		clock:  time.Now,
	}
}

// SetClock подменяет источник времени (для тестов)
func (s *TaskService) SetClock(clock func() time.Time) {
	s.clock = clock
}

type CreateTaskParams struct {
	Title          string
	Description    string
	EstimatedHours float64
	AssignedTo     string
	AssignedBy     string
	Priority       task.Priority
}

// CreateTask создаёт задачу в статусе Pending без временных отметок.
// Дубликат (title, assigned_to) отклоняется.
func (s *TaskService) CreateTask(ctx context.Context, p CreateTaskParams) (*task.Task, error) {
	if p.Title == "" {
		return nil, NewValidationError("title", "не может быть пустым")
	}
	if p.EstimatedHours <= 0 {
		return nil, NewValidationError("estimated_hours", "должно быть положительным")
	}
	if p.AssignedTo == "" {
		return nil, NewValidationError("assigned_to", "не может быть пустым")
	}
	if p.AssignedBy == "" {
		return nil, NewValidationError("assigned_by", "не может быть пустым")
	}
	if !p.Priority.Valid() {
		return nil, NewValidationError("priority", "ожидается High, Medium или Low")
	}

	t := &task.Task{
		UUID:           uuid.New(),
		Title:          p.Title,
		Description:    p.Description,
		EstimatedHours: p.EstimatedHours,
		Status:         task.StatusPending,
		AssignedTo:     p.AssignedTo,
		AssignedBy:     p.AssignedBy,
		Priority:       p.Priority,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			logger.Info("Service: Дубликат названия задачи",
				zap.String("title", p.Title),
				zap.String("assigned_to", p.AssignedTo))
			return nil, NewDuplicateTitle(p.Title, p.AssignedTo)
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	return t, nil
}

// ChangeStatus применяет запрошенный переход статуса. Отказ движка не
// меняет сохранённую задачу.
func (s *TaskService) ChangeStatus(ctx context.Context, title, assignedTo string, requested task.Status, role user.Role) (*task.Task, error) {
	stored, err := s.repo.GetByKey(ctx, title, assignedTo)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("title", title))
			return nil, NewNotFound("задача", title)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	t := stored.Clone()
	if berr := s.applyTransition(ctx, t, requested, role, s.clock()); berr != nil {
		logger.Info("Service: Переход отклонён",
			zap.String("title", title),
			zap.String("current", string(stored.Status)),
			zap.String("requested", string(requested)),
			zap.String("code", berr.Code))
		return nil, berr
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrVersionConflict) {
			return nil, NewVersionConflict(title)
		}
		return nil, fmt.Errorf("сохранение задачи: %w", err)
	}

	return t, nil
}

// TaskView — задача вместе с данными второй стороны:
// админ видит исполнителя, пользователь — постановщика
type TaskView struct {
	Task              *task.Task    `json:"task"`
	AssignedToDetails *user.Details `json:"assigned_to_details,omitempty"`
	AssignedByDetails *user.Details `json:"assigned_by_details,omitempty"`
}

// ListTasks возвращает задачи по фильтру. Фактические часы пересчитываются
// только для отображения, без сохранения и без уведомлений — их рассылают
// движок переходов и фоновая сверка.
func (s *TaskService) ListTasks(ctx context.Context, filter task.Filter, sortBy task.Sort, viewer user.Role) ([]TaskView, error) {
	tasks, err := s.repo.GetAll(ctx, filter, sortBy)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	emails := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if viewer == user.RoleAdmin {
			emails = append(emails, t.AssignedTo)
		} else {
			emails = append(emails, t.AssignedBy)
		}
	}

	users, err := s.users.GetByEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	byEmail := make(map[string]*user.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	now := s.clock()
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		shown := t.Clone()
		shown.ActualHours = ActualHours(shown, now)

		view := TaskView{Task: shown}
		if viewer == user.RoleAdmin {
			if u, ok := byEmail[t.AssignedTo]; ok {
				d := u.Details()
				view.AssignedToDetails = &d
			}
		} else {
			if u, ok := byEmail[t.AssignedBy]; ok {
				d := u.Details()
				view.AssignedByDetails = &d
			}
		}
		views = append(views, view)
	}

	return views, nil
}

// UpdateTask — правка полей задачи админом
func (s *TaskService) UpdateTask(ctx context.Context, title, assignedTo string, options ...TaskOption) (*task.Task, error) {
	stored, err := s.repo.GetByKey(ctx, title, assignedTo)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("title", title))
			return nil, NewNotFound("задача", title)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	t := stored.Clone()
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}

	if err := s.repo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, rep.ErrDuplicate):
			return nil, NewDuplicateTitle(t.Title, t.AssignedTo)
		case errors.Is(err, rep.ErrVersionConflict):
			return nil, NewVersionConflict(title)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	return t, nil
}

// DeleteTask удаляет задачу по названию
func (s *TaskService) DeleteTask(ctx context.Context, title string) error {
	if err := s.repo.DeleteByTitle(ctx, title); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("title", title))
			return NewNotFound("задача", title)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}
