package usecases

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"veilgate/internal/domain/node"
	"veilgate/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type mockHandle struct {
	mock.Mock
}

func (m *mockHandle) GetStats(ctx context.Context, category node.StatCategory, reset bool, timeout time.Duration) ([]node.Stat, error) {
	args := m.Called(ctx, category, reset, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]node.Stat), args.Error(1)
}

func (m *mockHandle) GetExtra(ctx context.Context) (*node.ExtraInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*node.ExtraInfo), args.Error(1)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) EnabledNodes(ctx context.Context) ([]node.ManagedNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]node.ManagedNode), args.Error(1)
}

type mockNodeRepo struct {
	mock.Mock
}

func (m *mockNodeRepo) ListEnabled(ctx context.Context) ([]node.Node, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]node.Node), args.Error(1)
}

func (m *mockNodeRepo) ListByStatus(ctx context.Context, status node.Status) ([]node.Node, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]node.Node), args.Error(1)
}

func (m *mockNodeRepo) UpdateStatus(ctx context.Context, id uint, status node.Status, message string) error {
	return m.Called(ctx, id, status, message).Error(0)
}

func TestCheckNodeHealthMarksFailingNodeAsErrored(t *testing.T) {
	handle := &mockHandle{}
	handle.On("GetExtra", mock.Anything).Return(nil, errors.New("connection refused"))

	source := &mockSource{}
	source.On("EnabledNodes", mock.Anything).Return([]node.ManagedNode{
		{Node: node.Node{ID: 1, Name: "eu-1", Status: node.StatusConnected}, Handle: handle},
	}, nil)

	repo := &mockNodeRepo{}
	repo.On("UpdateStatus", mock.Anything, uint(1), node.StatusError, "connection refused").Return(nil)

	uc := NewCheckNodeHealthUseCase(source, repo, time.Second, testLogger())

	require.NoError(t, uc.Execute(context.Background()))
	repo.AssertExpectations(t)
}

func TestCheckNodeHealthRecoversErroredNode(t *testing.T) {
	handle := &mockHandle{}
	handle.On("GetExtra", mock.Anything).Return(&node.ExtraInfo{UsageCoefficient: 1}, nil)

	source := &mockSource{}
	source.On("EnabledNodes", mock.Anything).Return([]node.ManagedNode{
		{Node: node.Node{ID: 2, Name: "eu-2", Status: node.StatusError}, Handle: handle},
	}, nil)

	repo := &mockNodeRepo{}
	repo.On("UpdateStatus", mock.Anything, uint(2), node.StatusConnected, "").Return(nil)

	uc := NewCheckNodeHealthUseCase(source, repo, time.Second, testLogger())

	require.NoError(t, uc.Execute(context.Background()))
	repo.AssertExpectations(t)
}

func TestCheckNodeHealthConnectsNewNode(t *testing.T) {
	handle := &mockHandle{}
	handle.On("GetExtra", mock.Anything).Return(&node.ExtraInfo{UsageCoefficient: 1}, nil)

	source := &mockSource{}
	source.On("EnabledNodes", mock.Anything).Return([]node.ManagedNode{
		{Node: node.Node{ID: 3, Name: "eu-3", Status: node.StatusConnecting}, Handle: handle},
	}, nil)

	repo := &mockNodeRepo{}
	repo.On("UpdateStatus", mock.Anything, uint(3), node.StatusConnected, "").Return(nil)

	uc := NewCheckNodeHealthUseCase(source, repo, time.Second, testLogger())

	require.NoError(t, uc.Execute(context.Background()))
	repo.AssertExpectations(t)
}

func TestCheckNodeHealthLeavesStableStatesAlone(t *testing.T) {
	healthy := &mockHandle{}
	healthy.On("GetExtra", mock.Anything).Return(&node.ExtraInfo{UsageCoefficient: 1}, nil)
	broken := &mockHandle{}
	broken.On("GetExtra", mock.Anything).Return(nil, errors.New("timeout"))

	source := &mockSource{}
	source.On("EnabledNodes", mock.Anything).Return([]node.ManagedNode{
		{Node: node.Node{ID: 1, Status: node.StatusConnected}, Handle: healthy},
		{Node: node.Node{ID: 2, Status: node.StatusError}, Handle: broken},
	}, nil)

	repo := &mockNodeRepo{}
	uc := NewCheckNodeHealthUseCase(source, repo, time.Second, testLogger())

	require.NoError(t, uc.Execute(context.Background()))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
