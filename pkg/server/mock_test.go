package server

import (
	"context"

	"github.com/raterudder/linky/pkg/types"
	"github.com/stretchr/testify/mock"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Login(ctx context.Context) (types.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Session), args.Error(1)
}

func (m *mockFetcher) Get(ctx context.Context, sess types.Session, kind types.ResourceKind, start, end string) (types.Consumption, bool, error) {
	args := m.Called(ctx, sess, kind, start, end)
	return args.Get(0), args.Bool(1), args.Error(2)
}
