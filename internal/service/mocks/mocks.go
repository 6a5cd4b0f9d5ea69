package mocks

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/stretchr/testify/mock"
)

// LinkProvisioner это мок service.LinkProvisioner
type LinkProvisioner struct {
	mock.Mock
}

func (m *LinkProvisioner) CreateLink(ctx context.Context, req model.LinkRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// NoticeDispatcher это мок service.NoticeDispatcher
type NoticeDispatcher struct {
	mock.Mock
}

func (m *NoticeDispatcher) Send(ctx context.Context, notice model.Notice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// RequestRepository это мок service.RequestRepository
type RequestRepository struct {
	mock.Mock
}

func (m *RequestRepository) Get(ctx context.Context, id string) (*model.CounselingRequest, error) {
	args := m.Called(ctx, id)
	if req, ok := args.Get(0).(*model.CounselingRequest); ok {
		return req, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RequestRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]*model.CounselingRequest); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RequestRepository) Create(ctx context.Context, draft *model.RequestDraft) (*model.CounselingRequest, error) {
	args := m.Called(ctx, draft)
	if req, ok := args.Get(0).(*model.CounselingRequest); ok {
		return req, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RequestRepository) Update(ctx context.Context, id string, patch model.RequestPatch) (*model.CounselingRequest, error) {
	args := m.Called(ctx, id, patch)
	if req, ok := args.Get(0).(*model.CounselingRequest); ok {
		return req, args.Error(1)
	}
	return nil, args.Error(1)
}
