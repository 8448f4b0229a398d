package core

import (
	"time"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

type ReactionKind string

// Reaction kinds are a closed vocabulary.
const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionLaugh ReactionKind = "laugh"
	ReactionWow   ReactionKind = "wow"
	ReactionSad   ReactionKind = "sad"
	ReactionFire  ReactionKind = "fire"
)

func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionFire:
		return true
	}
	return false
}

// Story is a time-bounded post. RetiredAt is set exactly once, either by the
// expiration sweeper or by the author deleting it early; it is never cleared.
type Story struct {
	ID         string `gorm:"primaryKey"`
	AuthorID   string `gorm:"index"`
	Text       string
	MediaKey   string
	Visibility Visibility
	CreatedAt  time.Time
	ExpiresAt  time.Time `gorm:"index"`
	RetiredAt  *time.Time
}

func (Story) TableName() string {
	return "stories"
}

func (s *Story) Retired() bool {
	return s.RetiredAt != nil
}

func (s *Story) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// StoryView is unique per (story, viewer).
type StoryView struct {
	StoryID  string `gorm:"primaryKey"`
	ViewerID string `gorm:"primaryKey"`
	ViewedAt time.Time
}

func (StoryView) TableName() string {
	return "story_views"
}

// Reaction is unique per (story, actor, kind).
type Reaction struct {
	ID        string       `gorm:"primaryKey"`
	StoryID   string       `gorm:"uniqueIndex:idx_reactions_dedup"`
	ActorID   string       `gorm:"uniqueIndex:idx_reactions_dedup"`
	Kind      ReactionKind `gorm:"uniqueIndex:idx_reactions_dedup"`
	CreatedAt time.Time
}

func (Reaction) TableName() string {
	return "reactions"
}

// AudienceEntry allow-lists a viewer for a private story. Written once at
// creation time, removed only when the story's engagement records are purged.
type AudienceEntry struct {
	StoryID string `gorm:"primaryKey"`
	ActorID string `gorm:"primaryKey"`
}

func (AudienceEntry) TableName() string {
	return "story_audience"
}

// FollowEdge is the directed follower -> followee relation. Mutation is owned
// by the social-graph service; storyd only reads it for visibility checks.
type FollowEdge struct {
	FollowerID string `gorm:"primaryKey"`
	FolloweeID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}

func (FollowEdge) TableName() string {
	return "follows"
}

// AuthorStats aggregates engagement over an author's recent stories.
type AuthorStats struct {
	PostedCount   int64                  `json:"posted_count"`
	TotalViews    int64                  `json:"total_views"`
	UniqueViewers int64                  `json:"unique_viewers"`
	Reactions     map[ReactionKind]int64 `json:"reactions"`
}

const (
	EventStoryViewed  = "story.viewed"
	EventStoryReacted = "story.reacted"
)

// EngagementEvent is the payload delivered to the author's live subscribers.
type EngagementEvent struct {
	Event      string       `json:"event"`
	StoryID    string       `json:"story_id"`
	AuthorID   string       `json:"author_id"`
	ActorID    string       `json:"actor_id"`
	Kind       ReactionKind `json:"kind,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
