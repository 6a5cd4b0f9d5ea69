package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository это справочник студентов и консультантов (только чтение)
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetStudent получает студента по ID
func (r *UserRepository) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	query := `
		SELECT id, name, student_number, email, COALESCE(telegram_id, 0), campus, course
		FROM students
		WHERE id = $1
	`

	var s model.Student
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Number,
		&s.Email,
		&s.TelegramID,
		&s.Campus,
		&s.Course,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	return &s, nil
}

// GetStudents получает студентов по списку ID, отсутствующие пропускаются
func (r *UserRepository) GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error) {
	result := make(map[string]*model.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, name, student_number, email, COALESCE(telegram_id, 0), campus, course
		FROM students
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get students by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Student
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Number,
			&s.Email,
			&s.TelegramID,
			&s.Campus,
			&s.Course,
		)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		result[s.ID] = &s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return result, nil
}

// GetCounselor получает консультанта по ID
func (r *UserRepository) GetCounselor(ctx context.Context, id string) (*model.Counselor, error) {
	query := `
		SELECT id, name, email, COALESCE(telegram_id, 0), campus
		FROM counselors
		WHERE id = $1
	`

	return r.scanCounselor(r.pool.QueryRow(ctx, query, id))
}

// GetCounselorByTelegramID получает консультанта по Telegram ID
func (r *UserRepository) GetCounselorByTelegramID(ctx context.Context, telegramID int64) (*model.Counselor, error) {
	query := `
		SELECT id, name, email, COALESCE(telegram_id, 0), campus
		FROM counselors
		WHERE telegram_id = $1
	`

	return r.scanCounselor(r.pool.QueryRow(ctx, query, telegramID))
}

func (r *UserRepository) scanCounselor(row pgx.Row) (*model.Counselor, error) {
	var c model.Counselor
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.TelegramID,
		&c.Campus,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get counselor: %w", err)
	}

	return &c, nil
}
