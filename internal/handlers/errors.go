package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taskManager/internal/logger"
	"taskManager/internal/service"
)

// handleBusinessError переводит бизнес-ошибку в HTTP-ответ;
// false — ошибка не бизнесовая, её обрабатывает вызывающий
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidationError, service.CodeInvalidInput, service.CodeUnknownStatus:
		return http.StatusBadRequest
	case service.CodeInvalidRoleTransition:
		return http.StatusForbidden
	case service.CodeIllegalStateTransition, service.CodeDuplicateTitle, service.CodeVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
