package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID // порядок вставки
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// составной ключ (title, assigned_to) уникален
	for _, existed := range s.storage {
		if existed.Title == taskToCreate.Title && existed.AssignedTo == taskToCreate.AssignedTo {
			return repo.ErrDuplicate
		}
	}

	taskToCreate.CreatedAt = time.Now()
	taskToCreate.Version = 1

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.storage[taskToUpdate.UUID] = taskToUpdate.Clone()

	return nil
}

func (s *TaskStorage) GetByKey(ctx context.Context, title, assignedTo string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, id := range s.ids {
		t, ok := s.storage[id]
		if !ok {
			continue
		}
		if t.Title == title && t.AssignedTo == assignedTo {
			// наружу уходит копия: хранилище разделяют запросы и фоновая сверка
			return t.Clone(), nil
		}
	}
	return nil, repo.ErrNotFound
}

// GetAll возвращает задачи по фильтру в порядке вставки
// или от новых к старым при сортировке latest
func (s *TaskStorage) GetAll(ctx context.Context, filter task.Filter, sortBy task.Sort) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t, ok := s.storage[id]
		if !ok {
			continue
		}
		if !matches(t, filter) {
			continue
		}
		res = append(res, t.Clone())
	}

	if sortBy == task.SortLatest {
		sort.SliceStable(res, func(i, j int) bool {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		})
	}

	return res, nil
}

// GetOpenStarted — выборка для фоновой сверки: незакрытые задачи с начатым отсчётом
func (s *TaskStorage) GetOpenStarted(ctx context.Context, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		if len(res) >= limit {
			break
		}

		t, ok := s.storage[id]
		if !ok {
			continue
		}
		if t.Status.Finished() || t.StartTime == nil {
			continue
		}
		res = append(res, t.Clone())
	}

	return res, nil
}

// DeleteByTitle удаляет первую задачу с таким названием
func (s *TaskStorage) DeleteByTitle(ctx context.Context, title string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for ind, id := range s.ids {
		t, ok := s.storage[id]
		if !ok || t.Title != title {
			continue
		}
		delete(s.storage, id)
		s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
		return nil
	}
	return repo.ErrNotFound
}

func matches(t *task.Task, filter task.Filter) bool {
	if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
		return false
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.TitlePrefix != "" &&
		!strings.HasPrefix(strings.ToLower(t.Title), strings.ToLower(filter.TitlePrefix)) {
		return false
	}
	return true
}
