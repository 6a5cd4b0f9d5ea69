package handlers

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
)

// describeError переводит ошибку движка в сообщение для консультанта
func describeError(err error) string {
	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		terminal   *service.TerminalStateError
		transition *service.TransitionError
		window     *service.SchedulingWindowError
	)

	switch {
	case errors.As(err, &validation):
		return fmt.Sprintf("❌ Invalid %s: %s", validation.Field, validation.Reason)
	case errors.As(err, &notFound):
		return fmt.Sprintf("❌ Request %s not found.", notFound.ID)
	case errors.As(err, &terminal):
		return fmt.Sprintf("❌ Request %s is already %s and can no longer change.", terminal.ID, terminal.Status)
	case errors.As(err, &transition):
		return fmt.Sprintf("❌ Cannot %s request %s while it is %s.", transition.Action, transition.ID, transition.Status)
	case errors.As(err, &window):
		if window.Guard == service.GuardNotice {
			return fmt.Sprintf("⏰ Too late to reschedule: the session starts in less than %d minutes.", window.NoticeMinutes)
		}
		return fmt.Sprintf("⏰ The new time must be at least %d minutes from now.", window.NoticeMinutes)
	case errors.Is(err, repository.ErrConflict):
		return "⚠️ The request was changed by someone else. Please try again."
	}
	return "❌ Something went wrong. Please try again later."
}
