package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

type CheckoutForm struct {
	Name            string
	Phone           string
	BillingAddress  string
	ShippingAddress string
}

type CheckoutResult struct {
	Order *models.Order
	// Skipped holds cart product ids that no longer exist.
	Skipped []uint
}

type DailyRevenue struct {
	Day    string
	Orders int
	Total  decimal.Decimal
}

type OrderService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

func newOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CMD-" + strings.ToUpper(id[:13])
}

// Checkout turns the cart into a persisted order. The cart is cleared only once the order
// and all its lines are committed; on any error it is left untouched.
func (s *OrderService) Checkout(ctx context.Context, cart *Cart, form CheckoutForm, userID *uint) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	if cart == nil || cart.IsEmpty() {
		l.Warn("checkout_error", "status", 400, "error", ErrEmptyCart)
		return nil, ErrEmptyCart
	}

	form.BillingAddress = strings.TrimSpace(form.BillingAddress)
	form.ShippingAddress = strings.TrimSpace(form.ShippingAddress)
	if form.ShippingAddress == "" {
		form.ShippingAddress = form.BillingAddress
	}

	ids := make([]uint, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		l.Error("checkout_error", "status", 500, "error", err)
		return nil, err
	}

	order := &models.Order{
		Number:          newOrderNumber(),
		UserID:          userID,
		Total:           decimal.Zero,
		Name:            strings.TrimSpace(form.Name),
		Phone:           strings.TrimSpace(form.Phone),
		BillingAddress:  form.BillingAddress,
		ShippingAddress: form.ShippingAddress,
	}
	res := &CheckoutResult{Order: order}

	for _, line := range cart.Lines {
		p, ok := products[line.ProductID]
		if !ok {
			res.Skipped = append(res.Skipped, line.ProductID)
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    line.Quantity,
			Subtotal:    sub,
		})
		order.Total = order.Total.Add(sub)
	}
	if len(res.Skipped) > 0 {
		l.Warn("checkout_products_missing", "product_ids", res.Skipped)
	}
	if len(order.Lines) == 0 {
		l.Warn("checkout_error", "status", 400, "error", ErrEmptyCart)
		return res, ErrEmptyCart
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		l.Error("checkout_error", "status", 500, "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}
	cart.Clear()

	metrics.OrdersCreated.Inc()
	publish(ctx, s.Events, mykafka.TopicOrders, order.Number, map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"number":   order.Number,
		"user_id":  order.UserID,
		"total":    order.Total.StringFixed(2),
		"lines":    len(order.Lines),
	})
	l.Info("checkout_success", "order_id", order.ID, "number", order.Number, "total", order.Total.StringFixed(2))
	return res, nil
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// CanView allows the buyer, an admin, or the session that placed a guest order.
func CanView(o *models.Order, userID uint, isAdmin bool, sessionOrders []uint) bool {
	if isAdmin {
		return true
	}
	if o.UserID != nil && userID != 0 && *o.UserID == userID {
		return true
	}
	for _, id := range sessionOrders {
		if id == o.ID {
			return true
		}
	}
	return false
}

func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.OrdersForUser(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.Repo.AllOrders(ctx)
}

// RevenuePerDay sums order totals per UTC day, most recent day first.
func RevenuePerDay(orders []models.Order) []DailyRevenue {
	byDay := map[string]*DailyRevenue{}
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format(time.DateOnly)
		d, ok := byDay[day]
		if !ok {
			d = &DailyRevenue{Day: day, Total: decimal.Zero}
			byDay[day] = d
		}
		d.Orders++
		d.Total = d.Total.Add(o.Total)
	}
	out := make([]DailyRevenue, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out
}
