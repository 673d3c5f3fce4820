package inmemory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
)

type UserStorage struct {
	storage map[string]*user.User // ключ — email
	mtx     *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[string]*user.User),
		mtx:     &sync.RWMutex{},
	}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[userToCreate.Email]; ok {
		return repo.ErrDuplicate
	}

	copied := *userToCreate
	s.storage[userToCreate.Email] = &copied
	return nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.storage[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *UserStorage) GetByEmails(ctx context.Context, emails []string) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	users := []*user.User{}
	for _, email := range emails {
		if u, ok := s.storage[email]; ok {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users, nil
}

// Seed добавляет стартовых пользователей, уже существующие не трогает
func (s *UserStorage) Seed(ctx context.Context) error {
	initial := []user.User{
		{Name: "admin", Email: "admin@example.com", Role: user.RoleAdmin, Password: "admin123456"},
		{Name: "user", Email: "user@example.com", Role: user.RoleUser, Password: "user123456"},
	}

	for _, u := range initial {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("хеширование пароля: %w", err)
		}
		u.Password = string(hash)

		if err := s.Create(ctx, &u); err != nil {
			if err == repo.ErrDuplicate {
				continue
			}
			return err
		}
	}

	logger.Info("Repository: Стартовые пользователи готовы")
	return nil
}
