package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID           uuid.UUID  `json:"uuid" db:"uuid"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	EstimatedHours float64    `json:"estimated_hours" db:"estimated_hours"`
	ActualHours    float64    `json:"actual_hours" db:"actual_hours"`
	Status         Status     `json:"status" db:"status"`
	PauseInterval  float64    `json:"pause_interval" db:"pause_interval"`
	PauseTime      *time.Time `json:"pause_time,omitempty" db:"pause_time"`
	StartTime      *time.Time `json:"start_time,omitempty" db:"start_time"`
	AssignedTo     string     `json:"assigned_to" db:"assigned_to"`
	AssignedBy     string     `json:"assigned_by" db:"assigned_by"`
	EmailSent      bool       `json:"email_sent" db:"email_sent"`
	Priority       Priority   `json:"priority" db:"priority"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version        int        `json:"version" db:"version"`
}

type Status string
type Priority string

const StatusPending Status = "Pending"
const StatusInProgress Status = "In Progress"
const StatusCompleted Status = "Completed"
const StatusApproved Status = "Approved"

const PriorityHigh Priority = "High"
const PriorityMedium Priority = "Medium"
const PriorityLow Priority = "Low"

// Valid сообщает, входит ли статус в жизненный цикл задачи
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusApproved:
		return true
	}
	return false
}

// Finished — задача закрыта, часы по ней больше не пересчитываются
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusApproved
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Clone возвращает независимую копию задачи.
// Движок переходов работает с копией: отклонённый переход не должен
// затронуть сохранённое состояние.
func (t *Task) Clone() *Task {
	copied := *t
	if t.PauseTime != nil {
		pt := *t.PauseTime
		copied.PauseTime = &pt
	}
	if t.StartTime != nil {
		st := *t.StartTime
		copied.StartTime = &st
	}
	if t.UpdatedAt != nil {
		ut := *t.UpdatedAt
		copied.UpdatedAt = &ut
	}
	return &copied
}

// Filter — условия выборки задач
type Filter struct {
	AssignedTo  string
	Status      Status
	TitlePrefix string
}

// Sort — вариант сортировки списка задач
type Sort string

const SortNone Sort = ""
const SortLatest Sort = "latest" // сначала последние созданные
