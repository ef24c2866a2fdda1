package scan

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/reail-cli/internal/normalize"
	"github.com/sells-group/reail-cli/pkg/anthropic"
	"github.com/sells-group/reail-cli/pkg/reailapi"
)

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) AnalyzeURL(ctx context.Context, rawURL string, advanced bool) (normalize.AISource, error) {
	args := m.Called(ctx, rawURL, advanced)
	return args.Get(0).(normalize.AISource), args.Error(1)
}

func (m *mockAnalyzer) AnalyzeMedia(ctx context.Context, mediaRef string, advanced bool) (normalize.AISource, error) {
	args := m.Called(ctx, mediaRef, advanced)
	return args.Get(0).(normalize.AISource), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ScanURL(ctx context.Context, rawURL string, advanced bool) (*reailapi.ScanResponse, error) {
	args := m.Called(ctx, rawURL, advanced)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reailapi.ScanResponse), args.Error(1)
}

func (m *mockBackend) ScanMedia(ctx context.Context, mediaRef string, advanced bool) (*reailapi.ScanResponse, error) {
	args := m.Called(ctx, mediaRef, advanced)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reailapi.ScanResponse), args.Error(1)
}

func (m *mockBackend) GetResult(ctx context.Context, scanID string) (*reailapi.ScanResponse, error) {
	args := m.Called(ctx, scanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reailapi.ScanResponse), args.Error(1)
}

func (m *mockBackend) SubmitScan(ctx context.Context, req reailapi.SubmitRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
