package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"canteen-be/internal/inventory"
	"canteen-be/internal/pickup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, o *Order, requested []inventory.Line) ([]inventory.StockDelta, error) {
	args := m.Called(ctx, o, requested)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockDelta), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatusTx(ctx context.Context, id string, to Status) (*Order, []inventory.StockDelta, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var deltas []inventory.StockDelta
	if args.Get(1) != nil {
		deltas = args.Get(1).([]inventory.StockDelta)
	}
	return args.Get(0).(*Order), deltas, args.Error(2)
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	newOrders []string
	fulfilled []string
	deltas    map[string]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{deltas: make(map[string]int)}
}

func (n *recordingNotifier) PublishNewOrder(o *Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newOrders = append(n.newOrders, o.ID)
}

func (n *recordingNotifier) PublishOrderFulfilled(orderID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fulfilled = append(n.fulfilled, orderID)
}

func (n *recordingNotifier) PublishStockDelta(itemID string, remaining int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deltas[itemID] = remaining
}

func TestPlaceOrder(t *testing.T) {
	who := Identity{ID: "user-1", Name: "Test User", Email: "user@canteen.com"}
	codec := pickup.NewCodec("test-secret")

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		repo.On("CreateOrderTx", mock.Anything, mock.AnythingOfType("*order.Order"),
			[]inventory.Line{{ItemID: "item-samosa", Quantity: 2}}).
			Run(func(args mock.Arguments) {
				o := args.Get(1).(*Order)
				o.Items = []Line{{FoodItemID: "item-samosa", FoodItemName: "Samosa",
					Quantity: 2, Price: 20, TotalPrice: 40}}
				o.TotalAmount = 40
			}).
			Return([]inventory.StockDelta{{ItemID: "item-samosa", Remaining: 38}}, nil)

		o, err := svc.PlaceOrder(context.Background(), who, []LineRequest{
			{FoodItemID: "item-samosa", Quantity: 2},
		})

		require.NoError(t, err)
		assert.NotEmpty(t, o.ID)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, 40, o.TotalAmount)
		assert.Nil(t, o.FulfilledAt)

		// The QR code verifies back to this order's id.
		gotID, _, err := codec.Verify(o.QRCode)
		require.NoError(t, err)
		assert.Equal(t, o.ID, gotID)

		assert.Equal(t, []string{o.ID}, notifier.newOrders)
		assert.Equal(t, map[string]int{"item-samosa": 38}, notifier.deltas)
		repo.AssertExpectations(t)
	})

	t.Run("EmptyOrder", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, codec, newRecordingNotifier())

		_, err := svc.PlaceOrder(context.Background(), who, nil)
		assert.ErrorIs(t, err, ErrEmptyOrder)
		repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, codec, newRecordingNotifier())

		for _, qty := range []int{0, -1} {
			_, err := svc.PlaceOrder(context.Background(), who, []LineRequest{
				{FoodItemID: "item-samosa", Quantity: qty},
			})
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		}
		repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RepositoryFailureSuppressesEvents", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		repo.On("CreateOrderTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &inventory.InsufficientStockError{Items: []string{"Samosa"}})

		_, err := svc.PlaceOrder(context.Background(), who, []LineRequest{
			{FoodItemID: "item-samosa", Quantity: 100},
		})

		var stockErr *inventory.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Empty(t, notifier.newOrders)
		assert.Empty(t, notifier.deltas)
	})

	t.Run("TotalIsSumOfLineTotals", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, codec, newRecordingNotifier())

		repo.On("CreateOrderTx", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				o := args.Get(1).(*Order)
				o.Items = []Line{
					{FoodItemID: "item-biryani", Quantity: 2, Price: 120, TotalPrice: 240},
					{FoodItemID: "item-chai", Quantity: 3, Price: 15, TotalPrice: 45},
				}
				o.TotalAmount = 285
			}).
			Return([]inventory.StockDelta{}, nil)

		o, err := svc.PlaceOrder(context.Background(), who, []LineRequest{
			{FoodItemID: "item-biryani", Quantity: 2},
			{FoodItemID: "item-chai", Quantity: 3},
		})

		require.NoError(t, err)
		sum := 0
		for _, line := range o.Items {
			assert.Equal(t, line.Price*line.Quantity, line.TotalPrice)
			sum += line.TotalPrice
		}
		assert.Equal(t, sum, o.TotalAmount)
	})
}

func TestUpdateStatus(t *testing.T) {
	codec := pickup.NewCodec("test-secret")

	t.Run("Fulfil", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		now := time.Now()
		repo.On("UpdateStatusTx", mock.Anything, "order-1", StatusFulfilled).
			Return(&Order{ID: "order-1", Status: StatusFulfilled, FulfilledAt: &now}, nil, nil)

		o, err := svc.UpdateStatus(context.Background(), "order-1", StatusFulfilled)

		require.NoError(t, err)
		assert.Equal(t, StatusFulfilled, o.Status)
		assert.Equal(t, []string{"order-1"}, notifier.fulfilled)
		assert.Empty(t, notifier.deltas)
	})

	t.Run("CancelPublishesStockDeltas", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		repo.On("UpdateStatusTx", mock.Anything, "order-1", StatusCancelled).
			Return(&Order{ID: "order-1", Status: StatusCancelled},
				[]inventory.StockDelta{{ItemID: "item-samosa", Remaining: 40}}, nil)

		o, err := svc.UpdateStatus(context.Background(), "order-1", StatusCancelled)

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Empty(t, notifier.fulfilled)
		assert.Equal(t, map[string]int{"item-samosa": 40}, notifier.deltas)
	})

	t.Run("RejectsNonTerminalTarget", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, codec, newRecordingNotifier())

		for _, to := range []Status{StatusPending, Status("preparing"), Status("")} {
			_, err := svc.UpdateStatus(context.Background(), "order-1", to)
			assert.ErrorIs(t, err, ErrInvalidStatus)
		}
		repo.AssertNotCalled(t, "UpdateStatusTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("TerminalStateErrorsPassThrough", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		repo.On("UpdateStatusTx", mock.Anything, "order-1", StatusCancelled).
			Return(nil, nil, ErrAlreadyFulfilled)

		_, err := svc.UpdateStatus(context.Background(), "order-1", StatusCancelled)
		assert.ErrorIs(t, err, ErrAlreadyFulfilled)
		assert.Empty(t, notifier.fulfilled)
	})
}

func TestVerifyPickup(t *testing.T) {
	codec := pickup.NewCodec("test-secret")

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		token := codec.Mint("order-1")
		now := time.Now()
		repo.On("UpdateStatusTx", mock.Anything, "order-1", StatusFulfilled).
			Return(&Order{ID: "order-1", Status: StatusFulfilled, FulfilledAt: &now}, nil, nil)

		o, err := svc.VerifyPickup(context.Background(), token)

		require.NoError(t, err)
		assert.Equal(t, "order-1", o.ID)
		assert.Equal(t, []string{"order-1"}, notifier.fulfilled)
	})

	t.Run("TamperedToken", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, codec, newRecordingNotifier())

		other := pickup.NewCodec("other-secret")
		_, err := svc.VerifyPickup(context.Background(), other.Mint("order-1"))

		assert.ErrorIs(t, err, pickup.ErrSignatureMismatch)
		repo.AssertNotCalled(t, "UpdateStatusTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MalformedToken", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, codec, newRecordingNotifier())

		_, err := svc.VerifyPickup(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, pickup.ErrMalformedToken)
	})

	t.Run("SecondScanRejected", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := newRecordingNotifier()
		svc := NewService(repo, codec, notifier)

		token := codec.Mint("order-1")
		repo.On("UpdateStatusTx", mock.Anything, "order-1", StatusFulfilled).
			Return(nil, nil, ErrAlreadyFulfilled)

		_, err := svc.VerifyPickup(context.Background(), token)
		assert.ErrorIs(t, err, ErrAlreadyFulfilled)
		assert.Empty(t, notifier.fulfilled)
	})
}

// fakeStockRepo backs PlaceOrder with an in-memory ledger so concurrent
// placements contend on real shared state.
type fakeStockRepo struct {
	mu        sync.Mutex
	remaining map[string]int
	orders    []*Order
}

func (f *fakeStockRepo) CreateOrderTx(_ context.Context, o *Order, requested []inventory.Line) ([]inventory.StockDelta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var short []string
	for _, ln := range requested {
		if f.remaining[ln.ItemID] < ln.Quantity {
			short = append(short, ln.ItemID)
		}
	}
	if len(short) > 0 {
		return nil, &inventory.InsufficientStockError{Items: short}
	}

	var deltas []inventory.StockDelta
	for _, ln := range requested {
		f.remaining[ln.ItemID] -= ln.Quantity
		o.Items = append(o.Items, Line{FoodItemID: ln.ItemID, Quantity: ln.Quantity})
		deltas = append(deltas, inventory.StockDelta{ItemID: ln.ItemID, Remaining: f.remaining[ln.ItemID]})
	}
	f.orders = append(f.orders, o)
	return deltas, nil
}

func (f *fakeStockRepo) GetByID(context.Context, string) (*Order, error) {
	return nil, ErrOrderNotFound
}

func (f *fakeStockRepo) List(context.Context, ListFilter) ([]*Order, error) {
	return nil, nil
}

func (f *fakeStockRepo) UpdateStatusTx(context.Context, string, Status) (*Order, []inventory.StockDelta, error) {
	return nil, nil, ErrOrderNotFound
}

func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	repo := &fakeStockRepo{remaining: map[string]int{"item-paratha": 1}}
	svc := NewService(repo, pickup.NewCodec("test-secret"), newRecordingNotifier())
	who := Identity{ID: "user-1", Name: "Test User", Email: "user@canteen.com"}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), who, []LineRequest{
				{FoodItemID: "item-paratha", Quantity: 1},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var stockErr *inventory.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		failed++
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, repo.remaining["item-paratha"])
	assert.Len(t, repo.orders, 1)
}
