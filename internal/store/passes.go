package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
)

// CreateDrinkPass inserts a new drink pass
func (s *Store) CreateDrinkPass(ctx context.Context, pass *models.DrinkPass) error {
	query := `
		INSERT INTO drink_passes (user_id, reward_id, venue_id, code, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, pass, query,
		pass.UserID, pass.RewardID, pass.VenueID, pass.Code, pass.Status, pass.ExpiresAt)
}

// GetDrinkPassByID retrieves a drink pass by ID
func (s *Store) GetDrinkPassByID(ctx context.Context, id int64) (*models.DrinkPass, error) {
	var pass models.DrinkPass
	err := s.db.GetContext(ctx, &pass, "SELECT * FROM drink_passes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("drink pass %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// GetDrinkPassByCode retrieves a drink pass by redemption code
func (s *Store) GetDrinkPassByCode(ctx context.Context, code string) (*models.DrinkPass, error) {
	var pass models.DrinkPass
	err := s.db.GetContext(ctx, &pass, "SELECT * FROM drink_passes WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("drink pass %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// GetDrinkPassesByUser retrieves a user's passes, newest first
func (s *Store) GetDrinkPassesByUser(ctx context.Context, userID int64) ([]models.DrinkPass, error) {
	var passes []models.DrinkPass
	err := s.db.SelectContext(ctx, &passes,
		"SELECT * FROM drink_passes WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return passes, err
}

// HasActivePassForReward reports whether the user holds an ACTIVE pass for the reward
func (s *Store) HasActivePassForReward(ctx context.Context, userID, rewardID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM drink_passes
			WHERE user_id = $1 AND reward_id = $2 AND status = $3
		)`, userID, rewardID, models.PassStatusActive)
	return exists, err
}

// TransitionPassStatus moves a pass from one status to another. The
// WHERE predicate on the current status is what makes concurrent
// redemptions lose: only one update ever matches the ACTIVE row.
func (s *Store) TransitionPassStatus(ctx context.Context, passID int64, from, to string) (bool, error) {
	var query string
	if to == models.PassStatusRedeemed {
		query = "UPDATE drink_passes SET status = $1, redeemed_at = NOW() WHERE id = $2 AND status = $3"
	} else {
		query = "UPDATE drink_passes SET status = $1 WHERE id = $2 AND status = $3"
	}

	res, err := s.db.ExecContext(ctx, query, to, passID, from)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ExpireOverduePasses marks ACTIVE passes past their expiry as EXPIRED
// and returns how many rows changed
func (s *Store) ExpireOverduePasses(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE drink_passes SET status = $1 WHERE status = $2 AND expires_at < NOW()",
		models.PassStatusExpired, models.PassStatusActive)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateItemPass inserts a new item pass
func (s *Store) CreateItemPass(ctx context.Context, pass *models.ItemPass) error {
	query := `
		INSERT INTO item_passes (user_id, menu_item_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, pass, query, pass.UserID, pass.MenuItemID)
}

// GetItemPassByID retrieves an item pass by ID
func (s *Store) GetItemPassByID(ctx context.Context, id int64) (*models.ItemPass, error) {
	var pass models.ItemPass
	err := s.db.GetContext(ctx, &pass, "SELECT * FROM item_passes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item pass %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// ConsumeItemPass marks an item pass consumed exactly once
func (s *Store) ConsumeItemPass(ctx context.Context, passID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE item_passes SET consumed = true, consumed_at = NOW() WHERE id = $1 AND consumed = false",
		passID)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
