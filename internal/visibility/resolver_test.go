package visibility_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storyd/internal/core"
	"storyd/internal/core/coretest"
	"storyd/internal/visibility"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newResolver(t *testing.T) (*visibility.Resolver, *coretest.StoryStore, *coretest.FollowStore, *coretest.Clock) {
	t.Helper()

	stories := coretest.NewStoryStore()
	follows := coretest.NewFollowStore()
	clock := coretest.NewClock(baseTime)

	return &visibility.Resolver{
		Stories: stories,
		Follows: follows,
		Clock:   clock,
	}, stories, follows, clock
}

func story(id, author string, vis core.Visibility) *core.Story {
	return &core.Story{
		ID:         id,
		AuthorID:   author,
		Text:       "hi",
		Visibility: vis,
		CreatedAt:  baseTime.Add(-time.Hour),
		ExpiresAt:  baseTime.Add(23 * time.Hour),
	}
}

func TestResolver_CanView(t *testing.T) {
	t.Parallel()

	t.Run("retired is invisible to everyone including the author", func(t *testing.T) {
		t.Parallel()

		r, _, _, clock := newResolver(t)

		s := story("s1", "alice", core.VisibilityPublic)
		retiredAt := clock.Now()
		s.RetiredAt = &retiredAt

		for _, viewer := range []string{"alice", "bob"} {
			ok, err := r.CanView(t.Context(), viewer, s)
			require.NoError(t, err)
			require.False(t, ok)
		}
	})

	t.Run("expired but unswept is already invisible", func(t *testing.T) {
		t.Parallel()

		r, _, _, clock := newResolver(t)

		s := story("s1", "alice", core.VisibilityPublic)
		clock.Advance(24 * time.Hour)

		ok, err := r.CanView(t.Context(), "bob", s)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("author always sees their live story", func(t *testing.T) {
		t.Parallel()

		r, _, _, _ := newResolver(t)

		ok, err := r.CanView(t.Context(), "alice", story("s1", "alice", core.VisibilityPrivate))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("public is visible to anyone", func(t *testing.T) {
		t.Parallel()

		r, _, _, _ := newResolver(t)

		ok, err := r.CanView(t.Context(), "stranger", story("s1", "alice", core.VisibilityPublic))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("friends requires a follow edge from viewer to author", func(t *testing.T) {
		t.Parallel()

		r, _, follows, _ := newResolver(t)
		s := story("s1", "alice", core.VisibilityFriends)

		ok, err := r.CanView(t.Context(), "bob", s)
		require.NoError(t, err)
		require.False(t, ok)

		follows.Add("bob", "alice")

		ok, err = r.CanView(t.Context(), "bob", s)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("reverse follow edge does not count", func(t *testing.T) {
		t.Parallel()

		r, _, follows, _ := newResolver(t)
		follows.Add("alice", "bob")

		ok, err := r.CanView(t.Context(), "bob", story("s1", "alice", core.VisibilityFriends))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("private requires an audience entry", func(t *testing.T) {
		t.Parallel()

		r, stories, _, _ := newResolver(t)

		s := story("s1", "alice", core.VisibilityPrivate)
		require.NoError(t, stories.Create(t.Context(), s, []string{"carol"}))

		ok, err := r.CanView(t.Context(), "carol", s)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanView(t.Context(), "dave", s)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestResolver_Filter(t *testing.T) {
	t.Parallel()

	r, stories, follows, clock := newResolver(t)

	public := story("public", "alice", core.VisibilityPublic)
	friends := story("friends", "alice", core.VisibilityFriends)
	private := story("private", "alice", core.VisibilityPrivate)
	mine := story("mine", "bob", core.VisibilityPrivate)
	expired := story("expired", "alice", core.VisibilityPublic)
	expired.ExpiresAt = clock.Now().Add(-time.Minute)

	require.NoError(t, stories.Create(t.Context(), private, []string{"bob"}))
	follows.Add("bob", "alice")

	visible, err := r.Filter(t.Context(), "bob", []core.Story{*public, *friends, *private, *mine, *expired})
	require.NoError(t, err)

	ids := make([]string, 0, len(visible))
	for _, s := range visible {
		ids = append(ids, s.ID)
	}
	require.ElementsMatch(t, []string{"public", "friends", "private", "mine"}, ids)
}
