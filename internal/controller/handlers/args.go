package handlers

import (
	"errors"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
)

var errUsage = errors.New("usage")

// commandArgs возвращает аргументы команды без самой команды.
// "/approve@counsel_bot R1" -> ["R1"]
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// parseIDArg разбирает команду с единственным аргументом id
func parseIDArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	return args[0], nil
}

// parseRescheduleArgs разбирает /reschedule <id> <YYYY-MM-DD> <HH:MM> <online|inperson>
func parseRescheduleArgs(args []string) (string, service.RescheduleInput, error) {
	if len(args) < 4 {
		return "", service.RescheduleInput{}, errUsage
	}
	// формат может быть из двух слов: "in person"
	mode := strings.Join(args[3:], " ")
	in, err := service.ParseRescheduleInput(args[1], args[2], mode)
	if err != nil {
		return "", service.RescheduleInput{}, err
	}
	return args[0], in, nil
}

// calendarQuery это разобранные аргументы /calendar
type calendarQuery struct {
	Date   model.Date
	View   model.CalendarView
	Search string
}

// parseCalendarArgs разбирает /calendar [YYYY-MM-DD] [active|history] [поиск...]
func parseCalendarArgs(args []string, today model.Date) calendarQuery {
	q := calendarQuery{Date: today, View: model.ViewActive}

	if len(args) > 0 {
		if d, err := model.ParseDate(args[0]); err == nil {
			q.Date = d
			args = args[1:]
		}
	}
	if len(args) > 0 {
		if view, ok := model.ParseCalendarView(strings.ToLower(args[0])); ok {
			q.View = view
			args = args[1:]
		}
	}
	q.Search = strings.Join(args, " ")
	return q
}
