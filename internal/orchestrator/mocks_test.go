package orchestrator

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/paydesk/console/internal/auth"
	"github.com/paydesk/console/internal/model"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, username, password)
	res, _ := args.Get(0).(*auth.LoginResult)
	return res, args.Error(1)
}

func (m *mockSessions) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSessions) IsAuthenticated(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockSessions) Role(ctx context.Context) model.Role {
	return m.Called(ctx).Get(0).(model.Role)
}

func (m *mockSessions) ChangePassword(ctx context.Context, current, next string) (*model.Envelope[struct{}], error) {
	args := m.Called(ctx, current, next)
	env, _ := args.Get(0).(*model.Envelope[struct{}])
	return env, args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) GetProfile(ctx context.Context) (*model.Envelope[model.Employee], error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(*model.Envelope[model.Employee])
	return env, args.Error(1)
}

func (m *mockGateway) GetSalary(ctx context.Context) (*model.Envelope[model.Salary], error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(*model.Envelope[model.Salary])
	return env, args.Error(1)
}

func (m *mockGateway) GetPaymentHistory(ctx context.Context) (*model.Envelope[[]model.PaymentRecord], error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(*model.Envelope[[]model.PaymentRecord])
	return env, args.Error(1)
}

func (m *mockGateway) GetNotifications(ctx context.Context) (*model.Envelope[[]model.Notification], error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(*model.Envelope[[]model.Notification])
	return env, args.Error(1)
}

func (m *mockGateway) MarkNotificationAsRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) MarkAllNotificationsAsRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
