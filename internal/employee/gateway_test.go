package employee

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/internal/model"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Get(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)
	return args.Error(0)
}

func (m *mockAPI) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}

func TestGateway_Reads(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	g := NewGateway(api)

	api.On("Get", ctx, "/employee/profile", mock.Anything).Run(func(args mock.Arguments) {
		env := args.Get(2).(*model.Envelope[model.Employee])
		env.Success = true
		env.Data = &model.Employee{ID: "7", Name: "Tran Thi B"}
	}).Return(nil).Once()
	api.On("Get", ctx, "/employee/salary", mock.Anything).Run(func(args mock.Arguments) {
		env := args.Get(2).(*model.Envelope[model.Salary])
		env.Success = true
		env.Data = &model.Salary{Month: "2024-05", NetSalary: decimal.NewFromInt(15000000)}
	}).Return(nil).Once()
	api.On("Get", ctx, "/employee/payment-history", mock.Anything).Run(func(args mock.Arguments) {
		env := args.Get(2).(*model.Envelope[[]model.PaymentRecord])
		env.Success = false
		env.Message = "no history"
	}).Return(nil).Once()
	api.On("Get", ctx, "/employee/notifications", mock.Anything).
		Return(errors.New("offline")).Once()

	profile, err := g.GetProfile(ctx)
	require.NoError(t, err)
	assert.True(t, profile.OK())
	assert.Equal(t, "Tran Thi B", profile.Data.Name)

	salary, err := g.GetSalary(ctx)
	require.NoError(t, err)
	assert.True(t, salary.Data.NetSalary.Equal(decimal.NewFromInt(15000000)))

	history, err := g.GetPaymentHistory(ctx)
	require.NoError(t, err)
	assert.False(t, history.OK())
	assert.Equal(t, "no history", history.Reason())

	_, err = g.GetNotifications(ctx)
	assert.EqualError(t, err, "offline")

	api.AssertExpectations(t)
}

func TestGateway_Mutations(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	g := NewGateway(api)

	api.On("Post", ctx, "/employee/notifications/n%2F1/read", nil, nil).Return(nil).Once()
	api.On("Post", ctx, "/employee/notifications/read-all", nil, nil).Return(errors.New("boom")).Once()

	require.NoError(t, g.MarkNotificationAsRead(ctx, "n/1"))
	assert.EqualError(t, g.MarkAllNotificationsAsRead(ctx), "boom")

	api.AssertExpectations(t)
}
