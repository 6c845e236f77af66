package order

import (
	"context"
	"time"

	"canteen-be/internal/inventory"
	"canteen-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier receives order-side realtime events. The hub implements it;
// tests swap in a recorder.
type Notifier interface {
	PublishNewOrder(o *Order)
	PublishOrderFulfilled(orderID string)
	PublishStockDelta(itemID string, remaining int)
}

// TokenCodec mints and verifies pickup tokens for order QR codes.
type TokenCodec interface {
	Mint(orderID string) string
	Verify(token string) (orderID string, mintedAt time.Time, err error)
}

type Service interface {
	PlaceOrder(ctx context.Context, who Identity, lines []LineRequest) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, to Status) (*Order, error)
	VerifyPickup(ctx context.Context, token string) (*Order, error)
}

type service struct {
	repo     Repository
	codec    TokenCodec
	notifier Notifier
}

func NewService(repo Repository, codec TokenCodec, notifier Notifier) Service {
	return &service{repo: repo, codec: codec, notifier: notifier}
}

func (s *service) PlaceOrder(ctx context.Context, who Identity, lines []LineRequest) (*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "PlaceOrder"))

	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	requested := make([]inventory.Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		requested = append(requested, inventory.Line{ItemID: l.FoodItemID, Quantity: l.Quantity})
	}

	o := &Order{
		ID:        uuid.NewString(),
		UserID:    who.ID,
		UserName:  who.Name,
		UserEmail: who.Email,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	o.QRCode = s.codec.Mint(o.ID)

	deltas, err := s.repo.CreateOrderTx(ctx, o, requested)
	if err != nil {
		return nil, err
	}

	log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.Int("total_amount", o.TotalAmount),
	)

	s.notifier.PublishNewOrder(o)
	for _, d := range deltas {
		s.notifier.PublishStockDelta(d.ItemID, d.Remaining)
	}

	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	if to != StatusFulfilled && to != StatusCancelled {
		return nil, ErrInvalidStatus
	}

	o, deltas, err := s.repo.UpdateStatusTx(ctx, id, to)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)

	if to == StatusFulfilled {
		s.notifier.PublishOrderFulfilled(o.ID)
	}
	for _, d := range deltas {
		s.notifier.PublishStockDelta(d.ItemID, d.Remaining)
	}

	return o, nil
}

func (s *service) VerifyPickup(ctx context.Context, token string) (*Order, error) {
	orderID, _, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	o, _, err := s.repo.UpdateStatusTx(ctx, orderID, StatusFulfilled)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("pickup verified", zap.String("order_id", o.ID))
	s.notifier.PublishOrderFulfilled(o.ID)
	return o, nil
}
