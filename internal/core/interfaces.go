package core

import (
	"context"
	"time"
)

// StoryRepository is the durable store for stories and their audience lists.
// It is the arbiter of the retirement transition: Retire applies the
// conditional update and reports whether this caller won it.
type StoryRepository interface {
	Create(ctx context.Context, story *Story, audience []string) error
	GetByID(ctx context.Context, id string) (*Story, error)
	FeedCandidates(ctx context.Context, now time.Time, limit, offset int) ([]Story, error)

	ExpiredBatch(ctx context.Context, now time.Time, limit int) ([]Story, error)
	Retire(ctx context.Context, id string, now time.Time) (bool, error)
	PurgeEngagements(ctx context.Context, storyID string) error

	AudienceContains(ctx context.Context, storyID, actorID string) (bool, error)
	AudienceFor(ctx context.Context, actorID string, storyIDs []string) (map[string]bool, error)

	AuthorStats(ctx context.Context, authorID string, since time.Time) (AuthorStats, error)
}

// EngagementRepository records views and reactions with store-level
// uniqueness. Inserts are atomic insert-or-noop; the returned bool reports
// whether a new row was written.
type EngagementRepository interface {
	InsertView(ctx context.Context, view StoryView) (bool, error)
	InsertReaction(ctx context.Context, reaction Reaction) (bool, error)
}

// FollowRepository reads the social graph owned by an external service.
type FollowRepository interface {
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowingSet(ctx context.Context, followerID string, followeeIDs []string) (map[string]bool, error)
}

// Counter is the fast ephemeral store backing the rate limiter. Incr must be
// a single atomic increment-and-fetch; the key self-expires after ttl.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Publisher is the fire-and-forget subscription transport.
type Publisher interface {
	Publish(subject string, payload []byte) error
}

// MediaCleaner instructs the media service to drop a stored blob. The key is
// opaque to storyd.
type MediaCleaner interface {
	Cleanup(ctx context.Context, mediaKey string) error
}

// Broadcaster fans engagement events out to the author's live subscribers.
// Publish must never block the caller.
type Broadcaster interface {
	Publish(event EngagementEvent)
}

// Migrator applies versioned schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
}

// Clock is injected everywhere expiry math happens so tests can advance time
// without sleeping.
type Clock interface {
	Now() time.Time
}
