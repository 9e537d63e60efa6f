package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/broker"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestService tracks per-user quest progress and validates tasks
type QuestService struct {
	store          *store.Store
	catalog        *CatalogService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewQuestService creates a new quest service
func NewQuestService(store *store.Store, catalog *CatalogService, eventPublisher *broker.EventPublisher) *QuestService {
	return &QuestService{
		store:          store,
		catalog:        catalog,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// TaskSubmission is the union of all task kinds' inputs
type TaskSubmission struct {
	Code      string            `json:"code,omitempty"`
	Responses map[string]string `json:"responses,omitempty"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
	Platform  string            `json:"platform,omitempty"`
	Data      json.RawMessage   `json:"data,omitempty"`
}

// QuestStatusView reports a user's standing on a quest
type QuestStatusView struct {
	Progress       *models.QuestProgress `json:"progress"`
	RequiredTotal  int                   `json:"required_total"`
	RequiredDone   int                   `json:"required_done"`
	QuestCompleted bool                  `json:"quest_completed"`
}

// StartQuest creates (or returns) the user's progress row
func (s *QuestService) StartQuest(ctx context.Context, userID, questID int64) (*models.QuestProgress, error) {
	quest, err := s.store.GetQuestByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !quest.Active {
		return nil, fmt.Errorf("%w: quest is not active", ErrInvalid)
	}

	progress := &models.QuestProgress{
		UserID:  userID,
		QuestID: questID,
		Status:  models.QuestStatusInProgress,
	}
	if err := s.store.CreateQuestProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to start quest: %w", err)
	}
	return progress, nil
}

// GetQuestStatus returns progress and required-task counts
func (s *QuestService) GetQuestStatus(ctx context.Context, userID, questID int64) (*QuestStatusView, error) {
	progress, err := s.store.GetQuestProgress(ctx, userID, questID)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountRequiredTasks(ctx, questID)
	if err != nil {
		return nil, err
	}
	done, err := s.store.CountCompletedRequiredTasks(ctx, userID, questID)
	if err != nil {
		return nil, err
	}

	return &QuestStatusView{
		Progress:       progress,
		RequiredTotal:  total,
		RequiredDone:   done,
		QuestCompleted: progress.Status == models.QuestStatusCompleted,
	}, nil
}

// CompleteTask validates a submission against the task's kind and
// config, records the completion, and recomputes quest progress
func (s *QuestService) CompleteTask(ctx context.Context, userID, taskID int64, submission *TaskSubmission) (*QuestStatusView, error) {
	ctx, span := util.StartSpan(ctx, "QuestService.CompleteTask")
	defer span.End()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	quest, err := s.store.GetQuestByID(ctx, task.QuestID)
	if err != nil {
		return nil, err
	}
	if !quest.Active {
		return nil, fmt.Errorf("%w: quest is not active", ErrInvalid)
	}

	if _, err := s.StartQuest(ctx, userID, quest.ID); err != nil {
		return nil, err
	}

	done, err := s.store.HasTaskCompletion(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fmt.Errorf("%w: task already completed", ErrConflict)
	}

	if err := s.validateSubmission(ctx, task, submission); err != nil {
		util.TaskValidationsTotal.WithLabelValues(task.Kind, "rejected").Inc()
		return nil, err
	}
	util.TaskValidationsTotal.WithLabelValues(task.Kind, "accepted").Inc()

	completion := &models.TaskCompletion{
		UserID:  userID,
		TaskID:  taskID,
		QuestID: quest.ID,
		Data:    submission.Data,
	}
	if err := s.store.CreateTaskCompletion(ctx, completion); err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	if err := s.recomputeProgress(ctx, userID, quest); err != nil {
		return nil, err
	}

	return s.GetQuestStatus(ctx, userID, quest.ID)
}

// recomputeProgress flips the quest to COMPLETED once every required
// task has a completion
func (s *QuestService) recomputeProgress(ctx context.Context, userID int64, quest *models.Quest) error {
	total, err := s.store.CountRequiredTasks(ctx, quest.ID)
	if err != nil {
		return err
	}
	done, err := s.store.CountCompletedRequiredTasks(ctx, userID, quest.ID)
	if err != nil {
		return err
	}

	if done < total {
		return nil
	}

	completed, err := s.store.CompleteQuestProgressTx(ctx, userID, quest.ID)
	if err != nil {
		return fmt.Errorf("failed to complete quest: %w", err)
	}
	if !completed {
		return nil
	}

	util.QuestsCompletedTotal.Inc()
	s.logger.Info("Quest completed",
		zap.Int64("user_id", userID),
		zap.Int64("quest_id", quest.ID))

	event := &models.QuestCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeQuestCompleted,
			Timestamp: time.Now(),
		},
		QuestID: quest.ID,
		UserID:  userID,
		VenueID: quest.VenueID,
	}
	if err := s.eventPublisher.PublishQuestCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish QuestCompleted event", zap.Error(err))
	}
	return nil
}

type qrScanConfig struct {
	ExpectedQRCode string `json:"expectedQRCode"`
}

type surveyConfig struct {
	RequiredFields []string `json:"requiredFields"`
}

type checkinConfig struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters"`
}

type socialShareConfig struct {
	Platforms []string `json:"platforms"`
}

func (s *QuestService) validateSubmission(ctx context.Context, task *models.Task, submission *TaskSubmission) error {
	if submission == nil {
		submission = &TaskSubmission{}
	}

	switch task.Kind {
	case models.TaskKindQRScan:
		return s.validateQRScan(ctx, task.Config, submission)
	case models.TaskKindSurvey:
		return validateSurvey(task.Config, submission)
	case models.TaskKindCheckin:
		return validateCheckin(task.Config, submission)
	case models.TaskKindSocialShare:
		return validateSocialShare(task.Config, submission)
	case models.TaskKindCustom:
		return nil
	default:
		return fmt.Errorf("%w: unknown task kind %s", ErrInvalid, task.Kind)
	}
}

func (s *QuestService) validateQRScan(ctx context.Context, config json.RawMessage, submission *TaskSubmission) error {
	if submission.Code == "" {
		return fmt.Errorf("%w: missing qr code", ErrInvalid)
	}

	if _, err := s.catalog.ResolveQR(ctx, submission.Code); err != nil {
		return fmt.Errorf("%w: code does not resolve to an active qr point", ErrInvalid)
	}

	var cfg qrScanConfig
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return fmt.Errorf("bad task config: %w", err)
		}
	}
	if cfg.ExpectedQRCode != "" && cfg.ExpectedQRCode != submission.Code {
		return fmt.Errorf("%w: wrong qr code for this task", ErrInvalid)
	}
	return nil
}

func validateSurvey(config json.RawMessage, submission *TaskSubmission) error {
	var cfg surveyConfig
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return fmt.Errorf("bad task config: %w", err)
		}
	}

	for _, field := range cfg.RequiredFields {
		if _, ok := submission.Responses[field]; !ok {
			return fmt.Errorf("%w: missing survey field %q", ErrInvalid, field)
		}
	}
	return nil
}

func validateCheckin(config json.RawMessage, submission *TaskSubmission) error {
	if submission.Latitude == nil || submission.Longitude == nil {
		return fmt.Errorf("%w: missing coordinates", ErrInvalid)
	}

	var cfg checkinConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("bad task config: %w", err)
	}

	distance := haversineMeters(*submission.Latitude, *submission.Longitude, cfg.Latitude, cfg.Longitude)
	if distance > cfg.RadiusMeters {
		return fmt.Errorf("%w: %.0fm away, check-in radius is %.0fm", ErrInvalid, distance, cfg.RadiusMeters)
	}
	return nil
}

func validateSocialShare(config json.RawMessage, submission *TaskSubmission) error {
	if submission.Platform == "" {
		return fmt.Errorf("%w: missing platform", ErrInvalid)
	}

	var cfg socialShareConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("bad task config: %w", err)
	}

	for _, platform := range cfg.Platforms {
		if strings.EqualFold(platform, submission.Platform) {
			return nil
		}
	}
	return fmt.Errorf("%w: platform %q not allowed for this task", ErrInvalid, submission.Platform)
}

const earthRadiusMeters = 6371000

// haversineMeters computes the great-circle distance between two points
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180

	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
