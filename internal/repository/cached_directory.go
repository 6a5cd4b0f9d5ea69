package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/patrickmn/go-cache"
)

// DirectorySource это справочник студентов и консультантов
type DirectorySource interface {
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error)
	GetCounselor(ctx context.Context, id string) (*model.Counselor, error)
	GetCounselorByTelegramID(ctx context.Context, telegramID int64) (*model.Counselor, error)
}

// CachedDirectory держит записи справочника в памяти ttl.
// Ошибки и ErrNotFound не кэшируются.
type CachedDirectory struct {
	source DirectorySource
	cache  *cache.Cache
}

func NewCachedDirectory(source DirectorySource, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

func studentKey(id string) string          { return "student:" + id }
func counselorKey(id string) string        { return "counselor:" + id }
func counselorTelegramKey(id int64) string { return "counselor_tg:" + strconv.FormatInt(id, 10) }

func (d *CachedDirectory) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	if s, ok := d.cachedStudent(id); ok {
		return s, nil
	}

	student, err := d.source.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(studentKey(id), *student)
	return student, nil
}

// GetStudents отдаёт найденное в кэше и дочитывает остальное одним запросом
func (d *CachedDirectory) GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error) {
	result := make(map[string]*model.Student, len(ids))
	var missing []string
	for _, id := range ids {
		if s, ok := d.cachedStudent(id); ok {
			result[id] = s
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := d.source.GetStudents(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, s := range loaded {
		d.cache.SetDefault(studentKey(id), *s)
		result[id] = s
	}
	return result, nil
}

func (d *CachedDirectory) GetCounselor(ctx context.Context, id string) (*model.Counselor, error) {
	if c, ok := d.cachedCounselor(counselorKey(id)); ok {
		return c, nil
	}

	counselor, err := d.source.GetCounselor(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(counselorKey(id), *counselor)
	return counselor, nil
}

func (d *CachedDirectory) GetCounselorByTelegramID(ctx context.Context, telegramID int64) (*model.Counselor, error) {
	key := counselorTelegramKey(telegramID)
	if c, ok := d.cachedCounselor(key); ok {
		return c, nil
	}

	counselor, err := d.source.GetCounselorByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(key, *counselor)
	d.cache.SetDefault(counselorKey(counselor.ID), *counselor)
	return counselor, nil
}

// Flush сбрасывает кэш
func (d *CachedDirectory) Flush() {
	d.cache.Flush()
}

// копии, чтобы вызывающий не менял закэшированное значение
func (d *CachedDirectory) cachedStudent(id string) (*model.Student, bool) {
	v, ok := d.cache.Get(studentKey(id))
	if !ok {
		return nil, false
	}
	s := v.(model.Student)
	return &s, true
}

func (d *CachedDirectory) cachedCounselor(key string) (*model.Counselor, bool) {
	v, ok := d.cache.Get(key)
	if !ok {
		return nil, false
	}
	c := v.(model.Counselor)
	return &c, true
}
