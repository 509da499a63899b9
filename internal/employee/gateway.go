package employee

import (
	"context"
	"net/url"

	"github.com/paydesk/console/internal/model"
)

// API is the slice of the HTTP client the gateway needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Gateway reads and updates the signed-in employee's own records. It never
// recovers from failures: every error reaches the caller.
type Gateway struct {
	api API
}

func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

func (g *Gateway) GetProfile(ctx context.Context) (*model.Envelope[model.Employee], error) {
	return get[model.Employee](ctx, g.api, "/employee/profile")
}

func (g *Gateway) GetSalary(ctx context.Context) (*model.Envelope[model.Salary], error) {
	return get[model.Salary](ctx, g.api, "/employee/salary")
}

func (g *Gateway) GetPaymentHistory(ctx context.Context) (*model.Envelope[[]model.PaymentRecord], error) {
	return get[[]model.PaymentRecord](ctx, g.api, "/employee/payment-history")
}

func (g *Gateway) GetNotifications(ctx context.Context) (*model.Envelope[[]model.Notification], error) {
	return get[[]model.Notification](ctx, g.api, "/employee/notifications")
}

func (g *Gateway) MarkNotificationAsRead(ctx context.Context, id string) error {
	return g.api.Post(ctx, "/employee/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (g *Gateway) MarkAllNotificationsAsRead(ctx context.Context) error {
	return g.api.Post(ctx, "/employee/notifications/read-all", nil, nil)
}

func get[T any](ctx context.Context, api API, path string) (*model.Envelope[T], error) {
	var env model.Envelope[T]
	if err := api.Get(ctx, path, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
