package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
)

// Recalculator пересчитывает часы незакрытой задачи и применяет правило
// уведомления о превышении; true — задачу нужно сохранить
type Recalculator interface {
	RecalculateOpenTask(ctx context.Context, t *task.Task, now time.Time) bool
}

// SweepWorker — фоновая сверка: раз в интервал пересчитывает фактические
// часы всех незакрытых начатых задач и рассылает уведомления о превышении
type SweepWorker struct {
	repo      service.TaskRepository
	tracker   Recalculator
	interval  time.Duration
	batchSize int
}

func NewSweepWorker(repo service.TaskRepository, tracker Recalculator, interval *time.Duration, batchSize *int) *SweepWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = time.Hour
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}

	return &SweepWorker{
		repo:      repo,
		tracker:   tracker,
		interval:  intervalToSet,
		batchSize: batchToSet,
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая сверка часов по задачам", zap.Time("started_at", time.Now()))
			w.Sweep(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая сверка останавливается")
			return
		}
	}
}

// Sweep — один проход. Ошибка по отдельной задаче логируется и не
// прерывает обход остальных.
func (w *SweepWorker) Sweep(ctx context.Context) {
	start := time.Now()

	tasks, err := w.getOpenTasks(ctx)
	if err != nil {
		logger.Warn("Worker: ошибка получения задач", zap.Error(err))
		return
	}

	updated := 0
	now := time.Now()

	for _, t := range tasks {
		if !w.tracker.RecalculateOpenTask(ctx, t, now) {
			continue
		}

		if err := w.repo.Update(ctx, t); err != nil {
			logger.Warn("Worker: Ошибка сохранения задачи",
				zap.String("title", t.Title),
				zap.String("assigned_to", t.AssignedTo),
				zap.Error(err))
			continue
		}
		updated++
	}

	logger.Info("Worker: Завершение сверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("updated", updated),
	)
}

func (w *SweepWorker) getOpenTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := w.repo.GetOpenStarted(ctx, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("получение незакрытых задач: %w", err)
	}
	return tasks, nil
}
