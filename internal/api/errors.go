package api

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorResponse это тело ответа с ошибкой
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Guard string `json:"guard,omitempty"`
}

// classify сопоставляет ошибку движка HTTP-статусу и коду
func classify(err error) (int, errorResponse) {
	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		terminal   *service.TerminalStateError
		transition *service.TransitionError
		window     *service.SchedulingWindowError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation_error"}
	case errors.As(err, &notFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"}
	case errors.As(err, &terminal):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "terminal_state"}
	case errors.As(err, &transition):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "invalid_transition"}
	case errors.As(err, &window):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "scheduling_window", Guard: string(window.Guard)}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, errorResponse{Error: "request was modified concurrently, retry", Code: "conflict"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}
