package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
)

const uniqueViolation = "23505"

const taskColumns = `uuid,
				title,
				description,
				estimated_hours,
				actual_hours,
				status,
				pause_interval,
				pause_time,
				start_time,
				assigned_to,
				assigned_by,
				email_sent,
				priority,
				created_at,
				updated_at,
				version`

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

// Pool отдаёт пул соединений для репозиториев, живущих в той же базе
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, title, description, estimated_hours, actual_hours, status,
				 pause_interval, pause_time, start_time, assigned_to, assigned_by,
				 email_sent, priority, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.EstimatedHours,
		taskToCreate.ActualHours,
		taskToCreate.Status,
		taskToCreate.PauseInterval,
		taskToCreate.PauseTime,
		taskToCreate.StartTime,
		taskToCreate.AssignedTo,
		taskToCreate.AssignedBy,
		taskToCreate.EmailSent,
		taskToCreate.Priority,
		time.Now(),
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			logger.Warn("Repository: Дубликат ключа (title, assigned_to)",
				zap.String("title", taskToCreate.Title),
				zap.String("assigned_to", taskToCreate.AssignedTo))
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				estimated_hours = $3,
				actual_hours = $4,
				status = $5,
				pause_interval = $6,
				pause_time = $7,
				start_time = $8,
				assigned_to = $9,
				email_sent = $10,
				priority = $11,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $12 AND version = $13
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.EstimatedHours,
		taskToUpdate.ActualHours,
		taskToUpdate.Status,
		taskToUpdate.PauseInterval,
		taskToUpdate.PauseTime,
		taskToUpdate.StartTime,
		taskToUpdate.AssignedTo,
		taskToUpdate.EmailSent,
		taskToUpdate.Priority,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Конфликт версий при обновлении задачи",
				zap.String("task_id", taskToUpdate.UUID.String()),
				zap.Int("expected_version", taskToUpdate.Version))
			return repo.ErrVersionConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByKey(ctx context.Context, title, assignedTo string) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE title = $1 AND assigned_to = $2`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, title, assignedTo).Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.EstimatedHours,
		&t.ActualHours,
		&t.Status,
		&t.PauseInterval,
		&t.PauseTime,
		&t.StartTime,
		&t.AssignedTo,
		&t.AssignedBy,
		&t.EmailSent,
		&t.Priority,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

// GetAll возвращает задачи по фильтру, сортировка latest — от новых к старым
func (s *Storage) GetAll(ctx context.Context, filter task.Filter, sortBy task.Sort) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	where := ""

	appendCond := func(cond string, val any) {
		args = append(args, val)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}

	if filter.AssignedTo != "" {
		appendCond("assigned_to = $%d", filter.AssignedTo)
	}
	if filter.Status != "" {
		appendCond("status = $%d", filter.Status)
	}
	if filter.TitlePrefix != "" {
		appendCond("title ILIKE $%d", filter.TitlePrefix+"%")
	}

	query += where
	if sortBy == task.SortLatest {
		query += " ORDER BY created_at DESC"
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// GetOpenStarted — выборка для фоновой сверки:
// незакрытые задачи с начатым отсчётом времени
func (s *Storage) GetOpenStarted(ctx context.Context, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE status NOT IN ($1, $2)
				AND start_time IS NOT NULL
				LIMIT $3`

	rows, err := s.pool.Query(ctx, query, task.StatusCompleted, task.StatusApproved, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// DeleteByTitle удаляет задачу по названию
func (s *Storage) DeleteByTitle(ctx context.Context, title string) error {
	start := time.Now()

	query := `DELETE FROM tasks WHERE title = $1`

	tag, err := s.pool.Exec(ctx, query, title)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]*task.Task, error) {
	tasks := []*task.Task{}

	for rows.Next() {
		t := &task.Task{}

		err := rows.Scan(
			&t.UUID,
			&t.Title,
			&t.Description,
			&t.EstimatedHours,
			&t.ActualHours,
			&t.Status,
			&t.PauseInterval,
			&t.PauseTime,
			&t.StartTime,
			&t.AssignedTo,
			&t.AssignedBy,
			&t.EmailSent,
			&t.Priority,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Version,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	for _, name := range []string{"001_init.up.sql", "002_indexes.up.sql"} {
		sqlBytes, err := os.ReadFile("internal/migrations/" + name)
		if err != nil {
			logger.Error("Repository: Не удалось прочитать миграцию "+name, err)
			return err
		}
		if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
			logger.Error("Repository: Не удалось применить миграцию "+name, err)
			return err
		}
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	for _, name := range []string{"002_indexes.down.sql", "001_init.down.sql"} {
		sqlBytes, err := os.ReadFile("internal/migrations/" + name)
		if err != nil {
			logger.Error("Repository: Не удалось прочитать миграцию "+name, err)
			return err
		}
		if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
			logger.Error("Repository: Не удалось откатить миграцию "+name, err)
			return err
		}
	}

	logger.Info("Repository: Миграции откатаны")
	return nil
}
