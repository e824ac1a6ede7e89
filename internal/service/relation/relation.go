package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
	"github.com/nkiryanov/mediashare/internal/repository"
)

// Delete/insert rounds before giving up on a hot key
const maxToggleAttempts = 3

// Likes and subscriptions: presence-only relations flipped by Toggle
type RelationService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *RelationService {
	return &RelationService{storage: storage}
}

// Flip relation between subject and target
//
// Each successful call makes exactly one flip, so after N concurrent successful toggles
// the relation is active iff N is odd. The store primary key is the uniqueness backstop.
func (s *RelationService) Toggle(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (models.ToggleResult, error) {
	if !key.Kind.IsValid() {
		return models.ToggleResult{}, apperrors.NewValidationError("kind", fmt.Sprintf("unknown target kind %q", key.Kind))
	}
	if key.TargetID == uuid.Nil {
		return models.ToggleResult{}, apperrors.NewValidationError("id", "target id is required")
	}

	repo := s.storage.Relation()

	for range maxToggleAttempts {
		removed, err := repo.Delete(ctx, subjectID, key)
		if err != nil {
			return models.ToggleResult{}, fmt.Errorf("can't toggle relation. Err: %w", err)
		}
		if removed {
			return models.ToggleResult{State: models.ToggleRemoved}, nil
		}

		rel, err := repo.Insert(ctx, subjectID, key)
		switch {
		case err == nil:
			return models.ToggleResult{State: models.ToggleCreated, Relation: &rel}, nil
		case errors.Is(err, apperrors.ErrRelationExists):
			// Concurrent toggle inserted it after our delete; try to remove it again
			continue
		default:
			return models.ToggleResult{}, fmt.Errorf("can't toggle relation. Err: %w", err)
		}
	}

	return models.ToggleResult{}, fmt.Errorf("%w: relation is toggled concurrently, try again", apperrors.ErrConflict)
}

func (s *RelationService) ToggleLike(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) (models.ToggleResult, error) {
	if !kind.IsLikeable() {
		return models.ToggleResult{}, apperrors.NewValidationError("kind", fmt.Sprintf("%q can't be liked", kind))
	}

	return s.Toggle(ctx, userID, models.RelationKey{Kind: kind, TargetID: targetID})
}

// Subscribe to channel or unsubscribe if subscribed already
// Channel is a user, so it has to exist
func (s *RelationService) ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (models.ToggleResult, error) {
	if subscriberID == channelID {
		return models.ToggleResult{}, apperrors.NewValidationError("channelId", "can't subscribe to own channel")
	}

	if _, err := s.storage.User().GetUserByID(ctx, channelID); err != nil {
		return models.ToggleResult{}, fmt.Errorf("can't get channel. Err: %w", err)
	}

	return s.Toggle(ctx, subscriberID, models.RelationKey{Kind: models.TargetChannel, TargetID: channelID})
}

func (s *RelationService) CountByTarget(ctx context.Context, key models.RelationKey) (int64, error) {
	if !key.Kind.IsValid() {
		return 0, apperrors.NewValidationError("kind", fmt.Sprintf("unknown target kind %q", key.Kind))
	}

	count, err := s.storage.Relation().CountByTarget(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("can't count relations. Err: %w", err)
	}
	return count, nil
}

// Targets of the kind the subject relates to: liked videos, subscribed channels
func (s *RelationService) ListBySubject(ctx context.Context, subjectID uuid.UUID, kind models.TargetKind) ([]models.Relation, error) {
	if !kind.IsValid() {
		return nil, apperrors.NewValidationError("kind", fmt.Sprintf("unknown target kind %q", kind))
	}

	rels, err := s.storage.Relation().ListBySubject(ctx, subjectID, kind)
	if err != nil {
		return nil, fmt.Errorf("can't list relations. Err: %w", err)
	}
	return rels, nil
}

// Subjects related to the target: channel subscribers, video likers
func (s *RelationService) ListSubjects(ctx context.Context, key models.RelationKey) ([]models.Relation, error) {
	if !key.Kind.IsValid() {
		return nil, apperrors.NewValidationError("kind", fmt.Sprintf("unknown target kind %q", key.Kind))
	}

	rels, err := s.storage.Relation().ListByTarget(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("can't list relations. Err: %w", err)
	}
	return rels, nil
}

// Whether the subject currently relates to the target: liked it, subscribed to it
func (s *RelationService) IsActive(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (bool, error) {
	if !key.Kind.IsValid() {
		return false, apperrors.NewValidationError("kind", fmt.Sprintf("unknown target kind %q", key.Kind))
	}

	_, err := s.storage.Relation().Get(ctx, subjectID, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrRelationNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("can't get relation. Err: %w", err)
	}
}
