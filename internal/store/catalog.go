package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
)

// GetVenueByID retrieves a venue by ID
func (s *Store) GetVenueByID(ctx context.Context, id int64) (*models.Venue, error) {
	var venue models.Venue
	err := s.db.GetContext(ctx, &venue, "SELECT * FROM venues WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("venue %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

// GetZoneByID retrieves a zone by ID
func (s *Store) GetZoneByID(ctx context.Context, id int64) (*models.Zone, error) {
	var zone models.Zone
	err := s.db.GetContext(ctx, &zone, "SELECT * FROM zones WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("zone %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// GetSponsorByID retrieves a sponsor by ID
func (s *Store) GetSponsorByID(ctx context.Context, id int64) (*models.Sponsor, error) {
	var sponsor models.Sponsor
	err := s.db.GetContext(ctx, &sponsor, "SELECT * FROM sponsors WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sponsor %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sponsor, nil
}

// GetQRPointByCode retrieves an active QR point by code
func (s *Store) GetQRPointByCode(ctx context.Context, code string) (*models.QRPoint, error) {
	var point models.QRPoint
	err := s.db.GetContext(ctx, &point,
		"SELECT * FROM qr_points WHERE code = $1 AND active = true", code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("qr point %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &point, nil
}

// GetMenuCategories retrieves menu categories for a venue in display order
func (s *Store) GetMenuCategories(ctx context.Context, venueID int64) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM menu_categories WHERE venue_id = $1 ORDER BY position", venueID)
	return categories, err
}

// GetMenuItems retrieves all menu items for a venue
func (s *Store) GetMenuItems(ctx context.Context, venueID int64) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM menu_items WHERE venue_id = $1 ORDER BY category_id, id", venueID)
	return items, err
}

// GetMenuItemByID retrieves a menu item by ID
func (s *Store) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM menu_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
