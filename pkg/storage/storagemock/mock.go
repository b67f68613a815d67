package storagemock

import (
	"context"

	"github.com/raterudder/linky/pkg/storage"
	"github.com/raterudder/linky/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

var _ storage.SessionStore = (*MockStore)(nil)

func (m *MockStore) Load(ctx context.Context) (types.Session, bool, error) {
	args := m.Called(ctx)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(types.Session), args.Bool(1), args.Error(2)
	}
	return types.Session{}, false, nil
}

func (m *MockStore) Save(ctx context.Context, sess types.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *MockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
