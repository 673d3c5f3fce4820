package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
)

// Движок смены статусов. Вместо вложенных условий — явная таблица правил:
// запрошенный статус + условие на текущем состоянии дают либо эффект,
// либо отказ. Правила проверяются по порядку, действует первое совпавшее;
// если ни одно не совпало, статус просто устанавливается.

type transitionRule struct {
	requested task.Status
	when      func(t *task.Task, role user.Role) bool
	apply     func(s *TaskService, ctx context.Context, t *task.Task, now time.Time)
	reject    func(t *task.Task, role user.Role) *BusinessError
}

var transitionTable = []transitionRule{
	// возобновление после паузы: накопить простой, снять отметку паузы
	{
		requested: task.StatusInProgress,
		when: func(t *task.Task, _ user.Role) bool {
			return t.Status == task.StatusPending && t.PauseTime != nil
		},
		apply: func(_ *TaskService, _ context.Context, t *task.Task, now time.Time) {
			t.PauseInterval += now.Sub(*t.PauseTime).Abs().Hours()
			t.PauseTime = nil
		},
	},
	// первый запуск: отметка начала ставится один раз
	{
		requested: task.StatusInProgress,
		when: func(t *task.Task, _ user.Role) bool {
			return t.StartTime == nil
		},
		apply: func(_ *TaskService, _ context.Context, t *task.Task, now time.Time) {
			start := now
			t.StartTime = &start
		},
	},
	// завершение начатой задачи: зафиксировать часы, проверить превышение
	{
		requested: task.StatusCompleted,
		when: func(t *task.Task, _ user.Role) bool {
			return t.StartTime != nil
		},
		apply: func(s *TaskService, ctx context.Context, t *task.Task, now time.Time) {
			t.ActualHours = ActualHours(t, now)
			s.applyOverrunRule(ctx, t)
		},
	},
	// пауза начатой задачи
	{
		requested: task.StatusPending,
		when: func(t *task.Task, _ user.Role) bool {
			return t.StartTime != nil && t.PauseTime == nil
		},
		apply: func(_ *TaskService, _ context.Context, t *task.Task, now time.Time) {
			pause := now
			t.PauseTime = &pause
		},
	},
	// страховка сверх ролевой проверки: пользователь не утверждает задачи
	{
		requested: task.StatusApproved,
		when: func(_ *task.Task, role user.Role) bool {
			return role == user.RoleUser
		},
		reject: func(_ *task.Task, _ user.Role) *BusinessError {
			return NewInvalidInput("пользователь не может установить статус Approved")
		},
	},
	// утверждение доступно только из Completed
	{
		requested: task.StatusApproved,
		when: func(t *task.Task, _ user.Role) bool {
			return t.Status != task.StatusCompleted
		},
		reject: func(t *task.Task, _ user.Role) *BusinessError {
			return NewIllegalStateTransition(t.Status, task.StatusApproved)
		},
	},
	// утверждение: письмо исполнителю, затем смена статуса
	{
		requested: task.StatusApproved,
		when: func(_ *task.Task, _ user.Role) bool {
			return true
		},
		apply: func(s *TaskService, ctx context.Context, t *task.Task, now time.Time) {
			s.notifyApproval(ctx, t)
		},
	},
}

// applyTransition прогоняет запрошенный переход через ролевую проверку
// и таблицу правил. Вызывается на копии задачи: при отказе сохранённое
// состояние не меняется.
func (s *TaskService) applyTransition(ctx context.Context, t *task.Task, requested task.Status, role user.Role, now time.Time) *BusinessError {
	if !requested.Valid() {
		return NewUnknownStatus(requested)
	}

	// ролевая проверка идёт до логики состояний
	switch role {
	case user.RoleUser:
		if t.Status == task.StatusApproved {
			return NewInvalidRoleTransition(role, requested)
		}
		if requested == task.StatusApproved {
			return NewInvalidRoleTransition(role, requested)
		}
	case user.RoleAdmin:
		if requested != task.StatusApproved {
			return NewInvalidRoleTransition(role, requested)
		}
	default:
		return NewValidationError("role", "ожидается admin или user")
	}

	for _, rule := range transitionTable {
		if rule.requested != requested {
			continue
		}
		if !rule.when(t, role) {
			continue
		}
		if rule.reject != nil {
			return rule.reject(t, role)
		}
		if rule.apply != nil {
			rule.apply(s, ctx, t, now)
		}
		break
	}

	t.Status = requested
	return nil
}

// notifyApproval — письмо исполнителю об утверждении. Переход применяется
// и при сбое отправки: флаг EmailSent остаётся false, сбой только логируется.
func (s *TaskService) notifyApproval(ctx context.Context, t *task.Task) {
	if err := s.sender.Send(ctx, t.AssignedTo, subjectApproved, approvalBody(t)); err != nil {
		logger.Warn("Notify: Не удалось отправить письмо об утверждении",
			zap.String("to", t.AssignedTo),
			zap.String("title", t.Title),
			zap.Error(err))
		t.EmailSent = false
		return
	}
	t.EmailSent = true
	logger.Info("Notify: Письмо об утверждении отправлено",
		zap.String("to", t.AssignedTo),
		zap.String("title", t.Title))
}
