package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Kind          string `json:"kind" binding:"required"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Mode          string `json:"mode"`
	StudentRef    string `json:"student_ref" binding:"required"`
	CounselorRef  string `json:"counselor_ref"`
	Reason        string `json:"reason"`
	Notes         string `json:"notes"`
}

type rescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
	Mode string `json:"mode" binding:"required"`
}

type batchRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Action string   `json:"action" binding:"required"`
}

type batchItem struct {
	ID      string                   `json:"id"`
	Request *model.CounselingRequest `json:"request,omitempty"`
	Error   *errorResponse           `json:"error,omitempty"`
}

// SubmitRequest создаёт заявку. POST /api/requests
func (h *Handler) SubmitRequest(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	draft := model.RequestDraft{
		Kind:         model.RequestKind(req.Kind),
		StudentRef:   req.StudentRef,
		CounselorRef: req.CounselorRef,
		ReasonText:   req.Reason,
		NotesText:    req.Notes,
	}
	if req.Mode != "" {
		mode, ok := model.ParseSessionMode(req.Mode)
		if !ok {
			h.fail(c, &service.ValidationError{Field: "mode", Reason: "expected Online or InPerson"})
			return
		}
		draft.Mode = mode
	}
	if req.ScheduledDate != "" {
		date, err := model.ParseDate(req.ScheduledDate)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: "scheduled_date", Reason: "expected YYYY-MM-DD"})
			return
		}
		draft.ScheduledDate = date
	}
	if req.ScheduledTime != "" {
		at, err := model.ParseClockTime(req.ScheduledTime)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: "scheduled_time", Reason: "expected HH:MM"})
			return
		}
		draft.ScheduledTime = &at
	}

	created, err := h.lifecycle.Submit(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRequest возвращает заявку. GET /api/requests/:id
func (h *Handler) GetRequest(c *gin.Context) {
	req, err := h.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListRequests возвращает заявки по фильтру.
// GET /api/requests?status=Pending,Approved&kind=&date=&from=&to=&counselor=&student=
func (h *Handler) ListRequests(c *gin.Context) {
	filter := model.RequestFilter{
		Kind:         model.RequestKind(c.Query("kind")),
		CounselorRef: c.Query("counselor"),
		StudentRef:   c.Query("student"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, model.RequestStatus(s))
			}
		}
	}
	for param, target := range map[string]**model.Date{"date": &filter.Date, "from": &filter.DateFrom, "to": &filter.DateTo} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: param, Reason: "expected YYYY-MM-DD"})
			return
		}
		*target = &d
	}

	requests, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// Approve одобряет заявку. Ссылка на встречу появится позже, ответ её не ждёт.
func (h *Handler) Approve(c *gin.Context) {
	result, err := h.lifecycle.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request":              result.Request,
		"meeting_link_pending": result.Provisioning != nil,
	})
}

func (h *Handler) Disapprove(c *gin.Context) {
	h.respondTransition(c, h.lifecycle.Disapprove)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.respondTransition(c, h.lifecycle.Cancel)
}

func (h *Handler) Complete(c *gin.Context) {
	h.respondTransition(c, h.lifecycle.MarkCompleted)
}

// Reschedule переносит встречу. POST /api/requests/:id/reschedule
func (h *Handler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: date, time and mode are required")
		return
	}
	in, err := service.ParseRescheduleInput(req.Date, req.Time, req.Mode)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.lifecycle.Reschedule(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": result.Request})
}

// Batch применяет действие к нескольким заявкам. Элементы выполняются независимо.
func (h *Handler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	results := h.lifecycle.ApplyBatch(c.Request.Context(), req.IDs, service.Action(req.Action))

	items := make([]batchItem, 0, len(results))
	failed := 0
	for _, r := range results {
		item := batchItem{ID: r.ID, Request: r.Request}
		if r.Err != nil {
			_, body := classify(r.Err)
			item.Error = &body
			failed++
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "failed": failed})
}

type transitionFunc func(ctx context.Context, id string) (*service.TransitionResult, error)

func (h *Handler) respondTransition(c *gin.Context, fn transitionFunc) {
	result, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": result.Request})
}
