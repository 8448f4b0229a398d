package stories

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storyd/internal/core"
	"storyd/internal/persistence"
)

type Repository struct {
	Logger *slog.Logger
	DB     *persistence.DB
}

func (r *Repository) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "stories.Repository")
	return nil
}

// Create persists the story and, for private stories, its audience list in
// one transaction.
func (r *Repository) Create(ctx context.Context, story *core.Story, audience []string) error {
	return r.DB.Gorm().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(story).Error; err != nil {
			return err
		}

		if len(audience) == 0 {
			return nil
		}

		entries := lo.Map(lo.Uniq(audience), func(actorID string, _ int) core.AudienceEntry {
			return core.AudienceEntry{StoryID: story.ID, ActorID: actorID}
		})

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*core.Story, error) {
	var story core.Story

	err := r.DB.Model(&core.Story{}).WithContext(ctx).Where("id = ?", id).First(&story).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &story, nil
}

// FeedCandidates returns non-retired, non-expired stories newest first. The
// visibility resolver filters the page afterwards.
func (r *Repository) FeedCandidates(ctx context.Context, now time.Time, limit, offset int) ([]core.Story, error) {
	var stories []core.Story

	err := r.DB.Model(&core.Story{}).
		WithContext(ctx).
		Where("retired_at IS NULL AND expires_at > ?", now).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&stories).Error

	return stories, err
}

// ExpiredBatch returns stories past their TTL that nobody retired yet, oldest
// first so backlog lag stays bounded.
func (r *Repository) ExpiredBatch(ctx context.Context, now time.Time, limit int) ([]core.Story, error) {
	var stories []core.Story

	err := r.DB.Model(&core.Story{}).
		WithContext(ctx).
		Where("expires_at <= ? AND retired_at IS NULL", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&stories).Error

	return stories, err
}

// Retire sets retired_at only if it is still unset. Returns false when
// another sweeper (or the author) already won the transition.
func (r *Repository) Retire(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.DB.Model(&core.Story{}).
		WithContext(ctx).
		Where("id = ? AND retired_at IS NULL", id).
		Update("retired_at", now)

	return res.RowsAffected == 1, res.Error
}

// PurgeEngagements removes the views, reactions and audience entries of a
// retired story. The schema has no FK cascades, so the cleanup is explicit.
func (r *Repository) PurgeEngagements(ctx context.Context, storyID string) error {
	return r.DB.Gorm().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&core.StoryView{}, &core.Reaction{}, &core.AudienceEntry{}} {
			if err := tx.Where("story_id = ?", storyID).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) AudienceContains(ctx context.Context, storyID, actorID string) (bool, error) {
	var count int64

	err := r.DB.Model(&core.AudienceEntry{}).
		WithContext(ctx).
		Where("story_id = ? AND actor_id = ?", storyID, actorID).
		Count(&count).Error

	return count > 0, err
}

func (r *Repository) AudienceFor(ctx context.Context, actorID string, storyIDs []string) (map[string]bool, error) {
	var ids []string

	err := r.DB.Model(&core.AudienceEntry{}).
		WithContext(ctx).
		Where("actor_id = ? AND story_id IN (?)", actorID, storyIDs).
		Pluck("story_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return lo.Associate(ids, func(id string) (string, bool) {
		return id, true
	}), nil
}

func (r *Repository) AuthorStats(ctx context.Context, authorID string, since time.Time) (core.AuthorStats, error) {
	stats := core.AuthorStats{Reactions: map[core.ReactionKind]int64{}}

	err := r.DB.Model(&core.Story{}).
		WithContext(ctx).
		Where("author_id = ? AND created_at > ? AND retired_at IS NULL", authorID, since).
		Count(&stats.PostedCount).Error
	if err != nil {
		return stats, err
	}

	views := func() *gorm.DB {
		return r.DB.Model(&core.StoryView{}).
			WithContext(ctx).
			Joins("JOIN stories ON stories.id = story_views.story_id").
			Where("stories.author_id = ? AND stories.created_at > ? AND stories.retired_at IS NULL", authorID, since)
	}

	if err := views().Count(&stats.TotalViews).Error; err != nil {
		return stats, err
	}
	if err := views().Distinct("story_views.viewer_id").Count(&stats.UniqueViewers).Error; err != nil {
		return stats, err
	}

	var rows []struct {
		Kind  core.ReactionKind
		Count int64
	}
	err = r.DB.Model(&core.Reaction{}).
		WithContext(ctx).
		Select("reactions.kind, count(*) as count").
		Joins("JOIN stories ON stories.id = reactions.story_id").
		Where("stories.author_id = ? AND stories.created_at > ? AND stories.retired_at IS NULL", authorID, since).
		Group("reactions.kind").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}

	for _, row := range rows {
		stats.Reactions[row.Kind] = row.Count
	}

	return stats, nil
}
