package service

import "fmt"

import "taskManager/internal/models/task"
import "taskManager/internal/models/user"

// Коды бизнес-ошибок
const (
	CodeNotFound               = "NOT_FOUND"
	CodeDuplicateTitle         = "DUPLICATE_TITLE"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidRoleTransition  = "INVALID_ROLE_TRANSITION"
	CodeIllegalStateTransition = "ILLEGAL_STATE_TRANSITION"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeUnknownStatus          = "UNKNOWN_STATUS"
	CodeVersionConflict        = "VERSION_CONFLICT"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource, key string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %q не найден(а)", resource, key),
		ToDetail("resource", resource),
		ToDetail("key", key),
	)
}

func NewDuplicateTitle(title, assignedTo string) *BusinessError {
	return NewBusinessError(CodeDuplicateTitle,
		fmt.Sprintf("задача %q для %s уже существует", title, assignedTo),
		ToDetail("title", title),
		ToDetail("assigned_to", assignedTo),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidationError,
		fmt.Sprintf("неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewInvalidRoleTransition(role user.Role, requested task.Status) *BusinessError {
	return NewBusinessError(CodeInvalidRoleTransition,
		fmt.Sprintf("роль %s не может запросить статус %q", role, requested),
		ToDetail("role", role),
		ToDetail("requested_status", requested),
	)
}

func NewIllegalStateTransition(current, requested task.Status) *BusinessError {
	return NewBusinessError(CodeIllegalStateTransition,
		fmt.Sprintf("переход %q → %q недопустим", current, requested),
		ToDetail("current_status", current),
		ToDetail("requested_status", requested),
	)
}

func NewInvalidInput(message string) *BusinessError {
	return NewBusinessError(CodeInvalidInput, message)
}

func NewUnknownStatus(requested task.Status) *BusinessError {
	return NewBusinessError(CodeUnknownStatus,
		fmt.Sprintf("неизвестный статус %q", requested),
		ToDetail("requested_status", requested),
	)
}

func NewVersionConflict(title string) *BusinessError {
	return NewBusinessError(CodeVersionConflict,
		fmt.Sprintf("задача %q была изменена параллельно, повторите запрос", title),
		ToDetail("title", title),
	)
}
