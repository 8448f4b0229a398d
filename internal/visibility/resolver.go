package visibility

import (
	"context"

	"github.com/samber/lo"

	"storyd/internal/core"
)

// Resolver decides whether a viewer may see a story. It never mutates state
// and is safe for concurrent use.
type Resolver struct {
	Stories core.StoryRepository
	Follows core.FollowRepository
	Clock   core.Clock
}

// CanView evaluates the policy in order, first match wins: retired or expired
// stories are invisible to everyone including the author; then author,
// public, friends via follow edge, private via audience entry.
func (r *Resolver) CanView(ctx context.Context, viewerID string, story *core.Story) (bool, error) {
	if story.Retired() || story.Expired(r.Clock.Now()) {
		return false, nil
	}

	if viewerID == story.AuthorID {
		return true, nil
	}

	switch story.Visibility {
	case core.VisibilityPublic:
		return true, nil
	case core.VisibilityFriends:
		return r.Follows.Exists(ctx, viewerID, story.AuthorID)
	case core.VisibilityPrivate:
		return r.Stories.AudienceContains(ctx, story.ID, viewerID)
	}

	return false, nil
}

// Filter keeps the stories the viewer may see. It batches the follow-graph
// and audience lookups to one query each regardless of page size.
func (r *Resolver) Filter(ctx context.Context, viewerID string, stories []core.Story) ([]core.Story, error) {
	now := r.Clock.Now()

	live := lo.Filter(stories, func(s core.Story, _ int) bool {
		return !s.Retired() && !s.Expired(now)
	})

	authors := lo.Uniq(lo.FilterMap(live, func(s core.Story, _ int) (string, bool) {
		return s.AuthorID, s.Visibility == core.VisibilityFriends && s.AuthorID != viewerID
	}))

	privateIDs := lo.FilterMap(live, func(s core.Story, _ int) (string, bool) {
		return s.ID, s.Visibility == core.VisibilityPrivate && s.AuthorID != viewerID
	})

	var (
		following map[string]bool
		audience  map[string]bool
		err       error
	)

	if len(authors) > 0 {
		if following, err = r.Follows.FollowingSet(ctx, viewerID, authors); err != nil {
			return nil, err
		}
	}
	if len(privateIDs) > 0 {
		if audience, err = r.Stories.AudienceFor(ctx, viewerID, privateIDs); err != nil {
			return nil, err
		}
	}

	return lo.Filter(live, func(s core.Story, _ int) bool {
		if viewerID == s.AuthorID {
			return true
		}
		switch s.Visibility {
		case core.VisibilityPublic:
			return true
		case core.VisibilityFriends:
			return following[s.AuthorID]
		case core.VisibilityPrivate:
			return audience[s.ID]
		}
		return false
	}), nil
}
