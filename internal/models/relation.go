package models

import (
	"time"

	"github.com/google/uuid"
)

type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
	TargetChannel TargetKind = "channel"
)

func (k TargetKind) IsLikeable() bool {
	switch k {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	default:
		return false
	}
}

func (k TargetKind) IsValid() bool {
	return k.IsLikeable() || k == TargetChannel
}

// What the subject acts on
type RelationKey struct {
	Kind     TargetKind
	TargetID uuid.UUID
}

// Presence-only record: the row exists while the relation is active
type Relation struct {
	SubjectID uuid.UUID  `json:"subjectId"`
	Kind      TargetKind `json:"targetKind"`
	TargetID  uuid.UUID  `json:"targetId"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (r Relation) Key() RelationKey {
	return RelationKey{Kind: r.Kind, TargetID: r.TargetID}
}

type ToggleState string

const (
	ToggleCreated ToggleState = "created"
	ToggleRemoved ToggleState = "removed"
)

type ToggleResult struct {
	State ToggleState

	// Set only when State is ToggleCreated
	Relation *Relation
}
