package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
)

// GetQuestByID retrieves a quest by ID
func (s *Store) GetQuestByID(ctx context.Context, id int64) (*models.Quest, error) {
	var quest models.Quest
	err := s.db.GetContext(ctx, &quest, "SELECT * FROM quests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quest %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

// GetQuestsByVenue retrieves active quests for a venue
func (s *Store) GetQuestsByVenue(ctx context.Context, venueID int64) ([]models.Quest, error) {
	var quests []models.Quest
	err := s.db.SelectContext(ctx, &quests,
		"SELECT * FROM quests WHERE venue_id = $1 AND active = true ORDER BY id", venueID)
	return quests, err
}

// GetTaskByID retrieves a task by ID
func (s *Store) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	err := s.db.GetContext(ctx, &task, "SELECT * FROM tasks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasksByQuestID retrieves all tasks for a quest in display order
func (s *Store) GetTasksByQuestID(ctx context.Context, questID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.SelectContext(ctx, &tasks,
		"SELECT * FROM tasks WHERE quest_id = $1 ORDER BY position", questID)
	return tasks, err
}

// CreateQuestProgress inserts a progress row, returning the existing
// row untouched when the (user, quest) pair already started
func (s *Store) CreateQuestProgress(ctx context.Context, progress *models.QuestProgress) error {
	query := `
		INSERT INTO quest_progress (user_id, quest_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, quest_id) DO UPDATE SET user_id = quest_progress.user_id
		RETURNING id, status, started_at, completed_at`

	return s.db.GetContext(ctx, progress, query,
		progress.UserID, progress.QuestID, progress.Status)
}

// GetQuestProgress retrieves progress for a (user, quest) pair
func (s *Store) GetQuestProgress(ctx context.Context, userID, questID int64) (*models.QuestProgress, error) {
	var progress models.QuestProgress
	err := s.db.GetContext(ctx, &progress,
		"SELECT * FROM quest_progress WHERE user_id = $1 AND quest_id = $2", userID, questID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quest progress user=%d quest=%d: %w", userID, questID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// CompleteQuestProgressTx marks a quest completed for a user and bumps
// the quest's aggregate completion counter, in one transaction. The
// status predicate makes the transition one-way.
func (s *Store) CompleteQuestProgressTx(ctx context.Context, userID, questID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE quest_progress
		SET status = $1, completed_at = NOW()
		WHERE user_id = $2 AND quest_id = $3 AND status = $4`,
		models.QuestStatusCompleted, userID, questID, models.QuestStatusInProgress)
	if err != nil {
		return false, fmt.Errorf("failed to complete quest progress: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE quests SET completion_count = completion_count + 1 WHERE id = $1", questID)
	if err != nil {
		return false, fmt.Errorf("failed to bump completion count: %w", err)
	}

	return true, tx.Commit()
}

// CreateTaskCompletion records a task completion for a user
func (s *Store) CreateTaskCompletion(ctx context.Context, completion *models.TaskCompletion) error {
	query := `
		INSERT INTO task_completions (user_id, task_id, quest_id, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, completed_at`

	data := completion.Data
	if data == nil {
		data = json.RawMessage("{}")
	}

	return s.db.GetContext(ctx, completion, query,
		completion.UserID, completion.TaskID, completion.QuestID, data)
}

// HasTaskCompletion reports whether the user already completed the task
func (s *Store) HasTaskCompletion(ctx context.Context, userID, taskID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM task_completions WHERE user_id = $1 AND task_id = $2)",
		userID, taskID)
	return exists, err
}

// CountRequiredTasks counts the quest's required tasks
func (s *Store) CountRequiredTasks(ctx context.Context, questID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM tasks WHERE quest_id = $1 AND is_required = true", questID)
	return count, err
}

// CountCompletedRequiredTasks counts required tasks the user has completed
func (s *Store) CountCompletedRequiredTasks(ctx context.Context, userID, questID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM task_completions tc
		JOIN tasks t ON t.id = tc.task_id
		WHERE tc.user_id = $1 AND tc.quest_id = $2 AND t.is_required = true`,
		userID, questID)
	return count, err
}

// GetRewardByID retrieves a reward by ID
func (s *Store) GetRewardByID(ctx context.Context, id int64) (*models.Reward, error) {
	var reward models.Reward
	err := s.db.GetContext(ctx, &reward, "SELECT * FROM rewards WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reward %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &reward, nil
}
