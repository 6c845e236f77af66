package menu

import (
	"context"
	"errors"
	"strings"
	"time"

	"canteen-be/internal/logger"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Notifier is the slice of the realtime fan-out the menu service needs.
// Publishing is fire-and-forget and must never fail a state change.
type Notifier interface {
	PublishItemUpdated(item *Item)
	PublishStockDelta(itemID string, remaining int)
}

type Service interface {
	List(ctx context.Context, filter Filter) ([]*Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, input NewItemInput) (*Item, error)
	Update(ctx context.Context, id string, patch Patch) (*Item, error)
	Delete(ctx context.Context, id string) error
}

const categoriesCacheKey = "categories"

type service struct {
	repo     Repository
	notifier Notifier
	catCache *lru.LRU[string, []string]
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		catCache: lru.NewLRU[string, []string](1, nil, 30*time.Second),
	}
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Item, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

// Categories serves the distinct category list from a short-TTL cache;
// the list changes only on admin edits and staleness of a few seconds is
// acceptable.
func (s *service) Categories(ctx context.Context) ([]string, error) {
	if cached, ok := s.catCache.Get(categoriesCacheKey); ok {
		return cached, nil
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.catCache.Add(categoriesCacheKey, categories)
	return categories, nil
}

func (s *service) Create(ctx context.Context, input NewItemInput) (*Item, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "CreateFoodItem"))

	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	category := strings.ToLower(strings.TrimSpace(input.Category))
	if name == "" || description == "" || category == "" {
		return nil, ErrMissingFields
	}
	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if input.TotalCount < 0 {
		return nil, ErrInvalidCount
	}

	now := time.Now()
	item := &Item{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    description,
		Price:          input.Price,
		Category:       category,
		TotalCount:     input.TotalCount,
		RemainingCount: input.TotalCount,
		ImageURL:       input.ImageURL,
		IsAvailable:    input.TotalCount > 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		log.Error("failed to create food item", zap.Error(err))
		return nil, err
	}

	s.catCache.Remove(categoriesCacheKey)
	s.notifier.PublishItemUpdated(item)

	log.Info("food item created", zap.String("item_id", item.ID))
	return item, nil
}

func (s *service) Update(ctx context.Context, id string, patch Patch) (*Item, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "UpdateFoodItem"),
		zap.String("item_id", id),
	)

	updated, prevRemaining, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) && !isValidationErr(err) {
			log.Error("failed to update food item", zap.Error(err))
		}
		return nil, err
	}

	s.catCache.Remove(categoriesCacheKey)
	s.notifier.PublishItemUpdated(updated)
	if updated.RemainingCount != prevRemaining {
		s.notifier.PublishStockDelta(updated.ID, updated.RemainingCount)
	}

	return updated, nil
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidCount)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.catCache.Remove(categoriesCacheKey)
	return nil
}
