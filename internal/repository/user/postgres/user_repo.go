package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
)

const uniqueViolation = "23505"

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users (email, name, role, password)
				VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query,
		userToCreate.Email,
		userToCreate.Name,
		userToCreate.Role,
		userToCreate.Password,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT email, name, role, password FROM users WHERE email = $1`

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, email).Scan(&u.Email, &u.Name, &u.Role, &u.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

// GetByEmails возвращает пользователей по списку адресов,
// используется при разрешении имён в списке задач
func (s *Storage) GetByEmails(ctx context.Context, emails []string) ([]*user.User, error) {
	query := `SELECT email, name, role, password FROM users WHERE email = ANY($1)`

	rows, err := s.pool.Query(ctx, query, emails)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.Email, &u.Name, &u.Role, &u.Password); err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			continue
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

// Seed добавляет стартовых пользователей с захешированными паролями,
// повторный запуск ничего не меняет
func (s *Storage) Seed(ctx context.Context) error {
	initial := []struct {
		name, email, role, password string
	}{
		{"admin", "admin@example.com", "admin", "admin123456"},
		{"user", "user@example.com", "user", "user123456"},
	}

	query := `INSERT INTO users (email, name, role, password)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (email) DO NOTHING`

	for _, u := range initial {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("хеширование пароля: %w", err)
		}
		if _, err := s.pool.Exec(ctx, query, u.email, u.name, u.role, string(hash)); err != nil {
			logger.Error("Repository: Не удалось добавить стартового пользователя", err)
			return fmt.Errorf("добавление стартовых данных: %w", err)
		}
	}

	logger.Info("Repository: Стартовые пользователи готовы")
	return nil
}
