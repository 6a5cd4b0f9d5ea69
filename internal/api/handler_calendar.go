package api

import (
	"net/http"

	"github.com/Freeeeeet/counseling_scheduler/internal/icsfeed"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

// GetCalendar возвращает встречи за день. GET /api/calendar?date=&view=&q=
// Без date берётся сегодняшний день в часовом поясе расписания.
func (h *Handler) GetCalendar(c *gin.Context) {
	date := model.DateOf(h.now().In(h.calendar.Location()))
	if raw := c.Query("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	view, ok := model.ParseCalendarView(c.Query("view"))
	if !ok {
		h.fail(c, &service.ValidationError{Field: "view", Reason: "expected active or history"})
		return
	}

	sessions, err := h.calendar.ProjectForDate(c.Request.Context(), date, view, c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"view":     view,
		"sessions": sessions,
	})
}

// GetCalendarICS выгружает встречи за интервал в iCalendar.
// GET /api/calendar.ics?from=&to=&view= , по умолчанию неделя с сегодняшнего дня.
func (h *Handler) GetCalendarICS(c *gin.Context) {
	today := model.DateOf(h.now().In(h.calendar.Location()))
	from, to := today, today.AddDays(6)

	if raw := c.Query("from"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: "from", Reason: "expected YYYY-MM-DD"})
			return
		}
		from = parsed
		to = from.AddDays(6)
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: "to", Reason: "expected YYYY-MM-DD"})
			return
		}
		to = parsed
	}

	view, ok := model.ParseCalendarView(c.Query("view"))
	if !ok {
		h.fail(c, &service.ValidationError{Field: "view", Reason: "expected active or history"})
		return
	}

	sessions, err := h.calendar.ProjectRange(c.Request.Context(), from, to, view)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := icsfeed.Build(sessions, icsfeed.Options{
		Name:   "Counseling sessions",
		Office: h.office,
		Now:    h.now(),
	})
	c.Header("Content-Disposition", `inline; filename="counseling.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
