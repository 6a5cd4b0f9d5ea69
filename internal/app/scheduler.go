package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionCompleter это операции движка, нужные для автозавершения встреч
type SessionCompleter interface {
	List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error)
	MarkCompleted(ctx context.Context, id string) (*service.TransitionResult, error)
	Location() *time.Location
}

type job struct {
	name     string
	interval time.Duration
	spec     string // cron-выражение вместо interval
	run      func(ctx context.Context)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer SessionCompleter
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location

	jobs     []job
	cronJobs []job
	crontab  *cron.Cron
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. interval = 0 отключает автозавершение.
func NewScheduler(completer SessionCompleter, interval time.Duration, logger *zap.Logger) *Scheduler {
	loc := time.Local
	if completer != nil {
		loc = completer.Location()
	}
	return &Scheduler{
		completer: completer,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		loc:       loc,
		stopChan:  make(chan struct{}),
	}
}

// Every регистрирует дополнительную периодическую задачу. Вызывать до Start.
func (s *Scheduler) Every(name string, interval time.Duration, run func(ctx context.Context)) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
}

// Cron регистрирует задачу по расписанию cron (5 полей, часовой пояс расписания). Вызывать до Start.
func (s *Scheduler) Cron(name, spec string, run func(ctx context.Context)) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("parse cron spec %q for %s: %w", spec, name, err)
	}
	s.cronJobs = append(s.cronJobs, job{name: name, spec: spec, run: run})
	return nil
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	if s.interval > 0 && s.completer != nil {
		s.launch(ctx, job{name: "auto-complete", interval: s.interval, run: s.completeFinished})
	}
	for _, j := range s.jobs {
		s.launch(ctx, j)
	}
	if len(s.cronJobs) > 0 {
		s.startCron(ctx)
	}
}

func (s *Scheduler) startCron(ctx context.Context) {
	s.crontab = cron.New(cron.WithLocation(s.loc))
	for _, j := range s.cronJobs {
		if _, err := s.crontab.AddFunc(j.spec, func() {
			s.logger.Info("Cron task started", zap.String("task", j.name))
			j.run(ctx)
		}); err != nil {
			s.logger.Error("Failed to schedule cron task", zap.String("task", j.name), zap.Error(err))
			continue
		}
		s.logger.Info("Cron task scheduled", zap.String("task", j.name), zap.String("spec", j.spec))
	}
	s.crontab.Start()
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
		if s.crontab != nil {
			// ждём выполняющиеся cron-задачи
			<-s.crontab.Stop().Done()
		}
	})
	s.wg.Wait()
}

func (s *Scheduler) launch(ctx context.Context, j job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTask(ctx, j)
	}()
}

// runTask выполняет задачу сразу и затем по тикеру
func (s *Scheduler) runTask(ctx context.Context, j job) {
	j.run(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.run(ctx)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", j.name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", j.name))
			return
		}
	}
}

// completeFinished отмечает проведёнными встречи, время которых уже закончилось
func (s *Scheduler) completeFinished(ctx context.Context) {
	now := s.now()
	today := model.DateOf(now.In(s.completer.Location()))

	requests, err := s.completer.List(ctx, model.RequestFilter{
		Kind:     model.KindSessionRequest,
		Statuses: []model.RequestStatus{model.RequestStatusApproved, model.RequestStatusRescheduled},
		DateTo:   &today,
	})
	if err != nil {
		s.logger.Error("Failed to list sessions for auto-complete", zap.Error(err))
		return
	}

	completed := 0
	for _, req := range requests {
		if req.CompletedAt != nil {
			continue
		}
		endsAt := req.StartAt(s.completer.Location()).Add(time.Duration(req.DurationMinutes) * time.Minute)
		if endsAt.After(now) {
			continue
		}

		if _, err := s.completer.MarkCompleted(ctx, req.ID); err != nil {
			s.logger.Warn("Failed to auto-complete session", zap.String("request_id", req.ID), zap.Error(err))
			continue
		}
		completed++
	}

	if completed > 0 {
		s.logger.Info("Sessions auto-completed", zap.Int("count", completed))
	}
}
