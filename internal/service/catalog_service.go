package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/redisclient"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"go.uber.org/zap"
)

// CatalogService serves venues, menus and QR resolution
type CatalogService struct {
	store      *store.Store
	redis      *redisclient.Client
	qrCacheTTL time.Duration
	logger     *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, redis *redisclient.Client, qrCacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:      store,
		redis:      redis,
		qrCacheTTL: qrCacheTTL,
		logger:     util.GetLogger(),
	}
}

// MenuCategoryView is a category with its items
type MenuCategoryView struct {
	Category models.MenuCategory `json:"category"`
	Items    []models.MenuItem   `json:"items"`
}

// QRContext is everything a scanned code resolves to
type QRContext struct {
	Code    string          `json:"code"`
	Venue   *models.Venue   `json:"venue"`
	Zone    *models.Zone    `json:"zone,omitempty"`
	Sponsor *models.Sponsor `json:"sponsor,omitempty"`
	Quest   *models.Quest   `json:"quest,omitempty"`
}

// GetVenue retrieves a venue
func (s *CatalogService) GetVenue(ctx context.Context, venueID int64) (*models.Venue, error) {
	return s.store.GetVenueByID(ctx, venueID)
}

// GetMenu returns the venue's menu grouped by category
func (s *CatalogService) GetMenu(ctx context.Context, venueID int64) ([]MenuCategoryView, error) {
	if _, err := s.store.GetVenueByID(ctx, venueID); err != nil {
		return nil, err
	}

	categories, err := s.store.GetMenuCategories(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	items, err := s.store.GetMenuItems(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}

	byCategory := make(map[int64][]models.MenuItem)
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	views := make([]MenuCategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, MenuCategoryView{
			Category: category,
			Items:    byCategory[category.ID],
		})
	}
	return views, nil
}

// ResolveQR resolves a scanned code to its venue/zone/sponsor/quest
// context, read-through cached in Redis
func (s *CatalogService) ResolveQR(ctx context.Context, code string) (*QRContext, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ResolveQR")
	defer span.End()

	if cached, err := s.redis.GetQRContext(ctx, code); err == nil && cached != nil {
		var qr QRContext
		if err := json.Unmarshal(cached, &qr); err == nil {
			util.QRResolutionsTotal.WithLabelValues("cache_hit").Inc()
			return &qr, nil
		}
	}

	point, err := s.store.GetQRPointByCode(ctx, code)
	if err != nil {
		util.QRResolutionsTotal.WithLabelValues("miss").Inc()
		return nil, err
	}

	qr := &QRContext{Code: point.Code}

	qr.Venue, err = s.store.GetVenueByID(ctx, point.VenueID)
	if err != nil {
		return nil, err
	}

	if point.ZoneID != nil {
		if zone, err := s.store.GetZoneByID(ctx, *point.ZoneID); err == nil {
			qr.Zone = zone
		}
	}
	if point.SponsorID != nil {
		if sponsor, err := s.store.GetSponsorByID(ctx, *point.SponsorID); err == nil {
			qr.Sponsor = sponsor
		}
	}
	if point.QuestID != nil {
		if quest, err := s.store.GetQuestByID(ctx, *point.QuestID); err == nil && quest.Active {
			qr.Quest = quest
		}
	}

	if payload, err := json.Marshal(qr); err == nil {
		if err := s.redis.CacheQRContext(ctx, code, payload, s.qrCacheTTL); err != nil {
			s.logger.Warn("Failed to cache QR context",
				zap.String("code", code),
				zap.Error(err))
		}
	}

	util.QRResolutionsTotal.WithLabelValues("resolved").Inc()
	return qr, nil
}
