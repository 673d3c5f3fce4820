package dto

import (
	"time"

	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/service"
)

type CreateTaskRequest struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	EstimatedHours float64       `json:"estimated_hours"`
	AssignedTo     string        `json:"assigned_to"`
	AssignedBy     string        `json:"assigned_by"`
	Priority       task.Priority `json:"priority"`
}

type UpdateTaskRequest struct {
	Title          *string        `json:"title,omitempty"`
	Description    *string        `json:"description,omitempty"`
	EstimatedHours *float64       `json:"estimated_hours,omitempty"`
	AssignedTo     string         `json:"assigned_to"`
	Priority       *task.Priority `json:"priority,omitempty"`
}

// ChangeStatusRequest — запрос на переход статуса; email определяет
// исполнителя, роль проверяется движком переходов
type ChangeStatusRequest struct {
	Status task.Status `json:"status"`
	Role   user.Role   `json:"role"`
	Email  string      `json:"email"`
}

type TaskResponse struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	EstimatedHours    float64       `json:"estimated_hours"`
	ActualHours       float64       `json:"actual_hours"`
	Status            string        `json:"status"`
	PauseInterval     float64       `json:"pause_interval"`
	StartTime         *time.Time    `json:"start_time,omitempty"`
	PauseTime         *time.Time    `json:"pause_time,omitempty"`
	AssignedTo        string        `json:"assigned_to"`
	AssignedBy        string        `json:"assigned_by"`
	EmailSent         bool          `json:"email_sent"`
	Priority          string        `json:"priority"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         *time.Time    `json:"updated_at,omitempty"`
	IsOverrun         bool          `json:"is_overrun"`
	AssignedToDetails *user.Details `json:"assigned_to_details,omitempty"`
	AssignedByDetails *user.Details `json:"assigned_by_details,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		Title:          t.Title,
		Description:    t.Description,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		Status:         string(t.Status),
		PauseInterval:  t.PauseInterval,
		StartTime:      t.StartTime,
		PauseTime:      t.PauseTime,
		AssignedTo:     t.AssignedTo,
		AssignedBy:     t.AssignedBy,
		EmailSent:      t.EmailSent,
		Priority:       string(t.Priority),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		IsOverrun:      !t.Status.Finished() && t.ActualHours > t.EstimatedHours,
	}
}

func FromTaskView(v service.TaskView) TaskResponse {
	resp := FromTask(v.Task)
	resp.AssignedToDetails = v.AssignedToDetails
	resp.AssignedByDetails = v.AssignedByDetails
	return resp
}

func FromTaskViewList(views []service.TaskView) []TaskResponse {
	result := make([]TaskResponse, len(views))
	for i, v := range views {
		result[i] = FromTaskView(v)
	}
	return result
}
