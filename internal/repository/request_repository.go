package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// changeChannel это канал LISTEN/NOTIFY, в который пишет триггер counseling_requests_notify
const changeChannel = "request_changes"

const requestColumns = `
	id, kind, status, scheduled_date, scheduled_time, duration_minutes, mode,
	student_ref, counselor_ref, reason, notes, meeting_link, version,
	created_at, updated_at, responded_at, cancelled_at, completed_at
`

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// Create создаёт новую заявку в статусе Pending
func (r *RequestRepository) Create(ctx context.Context, draft *model.RequestDraft) (*model.CounselingRequest, error) {
	id := draft.ID
	if id == "" {
		id = uuid.NewString()
	}

	duration := 0
	var scheduledDate *time.Time
	var scheduledTime model.ClockTime
	if draft.Kind == model.KindSessionRequest {
		duration = model.StandardDurationMinutes
		d := draft.ScheduledDate.Time()
		scheduledDate = &d
		if draft.ScheduledTime != nil {
			scheduledTime = *draft.ScheduledTime
		}
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO counseling_requests (
			id, kind, status, scheduled_date, scheduled_time, duration_minutes, mode,
			student_ref, counselor_ref, reason, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING ` + requestColumns

	req, err := scanRequest(r.pool.QueryRow(
		ctx, query,
		id,
		draft.Kind,
		model.RequestStatusPending,
		scheduledDate,
		int(scheduledTime),
		duration,
		draft.Mode,
		draft.StudentRef,
		draft.CounselorRef,
		draft.ReasonText,
		draft.NotesText,
		createdAt,
	))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return req, nil
}

// Get получает заявку по ID
func (r *RequestRepository) Get(ctx context.Context, id string) (*model.CounselingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM counseling_requests WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}

	return req, nil
}

// List получает заявки по фильтру, упорядоченные по дате и времени
func (r *RequestRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Kind != "" {
		add("kind = $%d", filter.Kind)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", statuses)
	}
	if filter.Date != nil {
		add("scheduled_date = $%d", filter.Date.Time())
	}
	if filter.DateFrom != nil {
		add("scheduled_date >= $%d", filter.DateFrom.Time())
	}
	if filter.DateTo != nil {
		add("scheduled_date <= $%d", filter.DateTo.Time())
	}
	if filter.CounselorRef != "" {
		add("counselor_ref = $%d", filter.CounselorRef)
	}
	if filter.StudentRef != "" {
		add("student_ref = $%d", filter.StudentRef)
	}

	query := `SELECT ` + requestColumns + ` FROM counseling_requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY scheduled_date NULLS LAST, scheduled_time, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.CounselingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// Update применяет патч к заявке.
// При ExpectedVersion > 0 запись обновляется только если версия совпала, иначе ErrConflict.
func (r *RequestRepository) Update(ctx context.Context, id string, patch model.RequestPatch) (*model.CounselingRequest, error) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.ScheduledDate != nil {
		set("scheduled_date", patch.ScheduledDate.Time())
	}
	if patch.ScheduledTime != nil {
		set("scheduled_time", int(*patch.ScheduledTime))
	}
	if patch.Mode != nil {
		set("mode", *patch.Mode)
	}
	if patch.MeetingLink != nil {
		set("meeting_link", *patch.MeetingLink)
	}
	if patch.RespondedAt != nil {
		set("responded_at", *patch.RespondedAt)
	}
	if patch.CancelledAt != nil {
		set("cancelled_at", *patch.CancelledAt)
	}
	if patch.CompletedAt != nil {
		set("completed_at", *patch.CompletedAt)
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set("updated_at", updatedAt)
	sets = append(sets, "version = version + 1")

	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))
	if patch.ExpectedVersion > 0 {
		args = append(args, patch.ExpectedVersion)
		where += fmt.Sprintf(" AND version = $%d", len(args))
	}

	query := `UPDATE counseling_requests SET ` + strings.Join(sets, ", ") +
		` WHERE ` + where + ` RETURNING ` + requestColumns

	req, err := scanRequest(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update request: %w", err)
	}

	// Ни одна строка не обновилась: либо заявки нет, либо версия устарела
	var exists bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM counseling_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check request exists: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrConflict
}

// Subscribe подписывается на изменения заявок через LISTEN/NOTIFY.
// Канал закрывается при отмене ctx или обрыве соединения.
func (r *RequestRepository) Subscribe(ctx context.Context) (<-chan model.RequestChange, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", changeChannel, err)
	}

	changes := make(chan model.RequestChange, 16)
	go func() {
		defer close(changes)
		defer func() {
			// Соединение возвращается в пул, подписка на нём не нужна
			uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_, _ = conn.Exec(uctx, "UNLISTEN "+changeChannel)
			cancel()
			conn.Release()
		}()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}

			var change model.RequestChange
			if err := json.Unmarshal([]byte(n.Payload), &change); err != nil {
				continue
			}

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}

func scanRequest(row pgx.Row) (*model.CounselingRequest, error) {
	var req model.CounselingRequest
	var scheduledDate *time.Time
	var scheduledTime int

	err := row.Scan(
		&req.ID,
		&req.Kind,
		&req.Status,
		&scheduledDate,
		&scheduledTime,
		&req.DurationMinutes,
		&req.Mode,
		&req.StudentRef,
		&req.CounselorRef,
		&req.ReasonText,
		&req.NotesText,
		&req.MeetingLink,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.RespondedAt,
		&req.CancelledAt,
		&req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduledDate != nil {
		req.ScheduledDate = model.DateOf(*scheduledDate)
	}
	req.ScheduledTime = model.ClockTime(scheduledTime)

	return &req, nil
}
