package follows

import (
	"context"

	"github.com/samber/lo"

	"storyd/internal/core"
	"storyd/internal/persistence"
)

// Repository reads the follow graph. Edges are written by the social-graph
// service; storyd never mutates them.
type Repository struct {
	DB *persistence.DB
}

func (r *Repository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64

	err := r.DB.Model(&core.FollowEdge{}).
		WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error

	return count > 0, err
}

// FollowingSet reports which of followeeIDs the follower has an edge to, in
// one query.
func (r *Repository) FollowingSet(ctx context.Context, followerID string, followeeIDs []string) (map[string]bool, error) {
	var existing []string

	err := r.DB.Model(&core.FollowEdge{}).
		WithContext(ctx).
		Where("follower_id = ? AND followee_id IN (?)", followerID, followeeIDs).
		Pluck("followee_id", &existing).Error
	if err != nil {
		return nil, err
	}

	return lo.Associate(existing, func(id string) (string, bool) {
		return id, true
	}), nil
}
