package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/backend"
	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/notify"
	"github.com/youthmultiply/welcoming-college/internal/participant"
)

const (
	listingCachePrefix  = "participants:"
	DefaultListingLimit = 10
	MaxListingLimit     = backend.PageSize
)

type pageSource interface {
	ListPage(ctx context.Context, token string, page, limit int) (*backend.Page, error)
}

type eventSubscriber interface {
	SubscribeFunc(name string, fn func(notify.Event)) func()
}

// ParticipantListing is one page of the admin participant table.
type ParticipantListing struct {
	Participants []participant.Record `json:"participants"`
	Pagination   models.Pagination    `json:"pagination"`
	Cached       bool                 `json:"-"`
}

// ListingService proxies participant pages for the admin table, caching
// them until the next participant-added notification.
type ListingService struct {
	source pageSource
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewListingService constructs the listing proxy.
func NewListingService(source pageSource, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{source: source, cache: cache, ttl: ttl, logger: logger}
}

// List returns one page. Page and limit are clamped to sane values.
func (s *ListingService) List(ctx context.Context, token string, page, limit int) (*ParticipantListing, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	if limit > MaxListingLimit {
		limit = MaxListingLimit
	}

	key := listingKey(token, page, limit)
	var cached ParticipantListing
	if s.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	result, err := s.source.ListPage(ctx, token, page, limit)
	if err != nil {
		return nil, err
	}
	listing := &ParticipantListing{
		Participants: result.Participants,
		Pagination: models.Pagination{
			Page:       result.Page,
			PageSize:   result.Limit,
			TotalPages: result.TotalPages,
		},
	}
	s.cache.Set(ctx, key, listing, s.ttl)
	return listing, nil
}

// Invalidate drops every cached page.
func (s *ListingService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, listingCachePrefix+"*")
}

// WatchRegistrations invalidates the cache on every participant-added event
// until the returned cancel func is called.
func (s *ListingService) WatchRegistrations(bus eventSubscriber) func() {
	return bus.SubscribeFunc(notify.EventParticipantAdded, func(notify.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Invalidate(ctx); err != nil {
			s.logger.Warn("listing cache invalidation failed", zap.Error(err))
		}
	})
}

// listingKey scopes entries per token; the token itself never reaches Redis.
func listingKey(token string, page, limit int) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s%s:page=%d:limit=%d", listingCachePrefix, hex.EncodeToString(sum[:8]), page, limit)
}
