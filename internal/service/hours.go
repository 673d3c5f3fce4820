package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
)

const subjectOverrun = "Task warning"
const subjectApproved = "Task Approved"

// ActualHours — чистый расчёт отработанных часов задачи на момент now.
// Для закрытой задачи или задачи без начатого отсчёта возвращается
// сохранённое значение. Отрицательный результат (сдвиг часов, битые
// данные) сбрасывается в ноль с предупреждением в журнале.
func ActualHours(t *task.Task, now time.Time) float64 {
	if t.Status.Finished() || t.StartTime == nil {
		return t.ActualHours
	}

	elapsed := now.Sub(*t.StartTime).Abs().Hours()
	worked := elapsed - t.PauseInterval
	if worked < 0 {
		logger.Warn("Hours: Отрицательное рабочее время, сброс в ноль",
			zap.String("title", t.Title),
			zap.String("assigned_to", t.AssignedTo),
			zap.Float64("hours", worked))
		worked = 0
	}
	return round2(worked)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func overrunBody(t *task.Task) string {
	return `The actual hours for the task "` + t.Title +
		`" have exceeded the estimated hours.<br><b>Note:</b> This is bot generated email.`
}

func approvalBody(t *task.Task) string {
	return `Congratulations, your task "` + t.Title + `" has been approved by ` +
		t.AssignedBy + `.<br><b>Note:</b> This is bot generated email.`
}

// applyOverrunRule отправляет предупреждение о превышении оценки
// исполнителю и постановщику — не больше одного раза на эпизод превышения.
// Единая политика для запросов и фоновой сверки: EmailSent взводится
// только после успешной отправки обоих писем; при сбое остаётся false,
// и следующий пересчёт повторит попытку.
func (s *TaskService) applyOverrunRule(ctx context.Context, t *task.Task) bool {
	if t.ActualHours <= t.EstimatedHours || t.EmailSent {
		return false
	}

	body := overrunBody(t)
	failed := false
	for _, rcpt := range []string{t.AssignedTo, t.AssignedBy} {
		if err := s.sender.Send(ctx, rcpt, subjectOverrun, body); err != nil {
			logger.Warn("Notify: Не удалось отправить предупреждение о превышении",
				zap.String("to", rcpt),
				zap.String("title", t.Title),
				zap.Error(err))
			failed = true
		}
	}

	if failed {
		t.EmailSent = false
		return false
	}

	t.EmailSent = true
	logger.Info("Notify: Предупреждение о превышении отправлено",
		zap.String("title", t.Title),
		zap.Float64("actual_hours", t.ActualHours),
		zap.Float64("estimated_hours", t.EstimatedHours))
	return true
}

// RecalculateOpenTask пересчитывает фактические часы незакрытой задачи
// и применяет правило уведомления о превышении. Возвращает true, если
// задача изменилась и её нужно сохранить. Используется и движком
// переходов, и фоновой сверкой.
func (s *TaskService) RecalculateOpenTask(ctx context.Context, t *task.Task, now time.Time) bool {
	if t.Status.Finished() || t.StartTime == nil {
		return false
	}

	hours := ActualHours(t, now)
	changed := hours != t.ActualHours
	t.ActualHours = hours

	if s.applyOverrunRule(ctx, t) {
		changed = true
	}
	return changed
}
