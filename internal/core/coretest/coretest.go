// Package coretest provides in-memory implementations of the core contracts
// for tests. They enforce the same atomicity the real stores do (conditional
// retirement, insert-or-noop uniqueness, atomic counters) under a mutex.
package coretest

import (
	"context"
	"errors"
	"sync"
	"time"

	"storyd/internal/core"
)

// Clock is a manual core.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type viewKey struct {
	storyID, viewerID string
}

type reactionKey struct {
	storyID, actorID string
	kind             core.ReactionKind
}

// StoryStore implements core.StoryRepository and core.EngagementRepository.
type StoryStore struct {
	mu        sync.Mutex
	stories   map[string]*core.Story
	audience  map[string]map[string]bool
	views     map[viewKey]core.StoryView
	reactions map[reactionKey]core.Reaction

	// Injectable failures.
	BatchErr  error
	RetireErr map[string]error
}

func NewStoryStore() *StoryStore {
	return &StoryStore{
		stories:   map[string]*core.Story{},
		audience:  map[string]map[string]bool{},
		views:     map[viewKey]core.StoryView{},
		reactions: map[reactionKey]core.Reaction{},
		RetireErr: map[string]error{},
	}
}

func (s *StoryStore) Create(_ context.Context, story *core.Story, audience []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *story
	s.stories[story.ID] = &copied

	for _, actorID := range audience {
		if s.audience[story.ID] == nil {
			s.audience[story.ID] = map[string]bool{}
		}
		s.audience[story.ID][actorID] = true
	}
	return nil
}

func (s *StoryStore) GetByID(_ context.Context, id string) (*core.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *story
	return &copied, nil
}

func (s *StoryStore) FeedCandidates(_ context.Context, now time.Time, limit, offset int) ([]core.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Story
	for _, story := range s.stories {
		if story.Retired() || story.Expired(now) {
			continue
		}
		out = append(out, *story)
	}

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *StoryStore) ExpiredBatch(_ context.Context, now time.Time, limit int) ([]core.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.BatchErr != nil {
		return nil, s.BatchErr
	}

	var out []core.Story
	for _, story := range s.stories {
		if story.RetiredAt == nil && story.Expired(now) {
			out = append(out, *story)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *StoryStore) Retire(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.RetireErr[id]; err != nil {
		return false, err
	}

	story, ok := s.stories[id]
	if !ok || story.RetiredAt != nil {
		return false, nil
	}
	story.RetiredAt = &now
	return true, nil
}

func (s *StoryStore) PurgeEngagements(_ context.Context, storyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.views {
		if key.storyID == storyID {
			delete(s.views, key)
		}
	}
	for key := range s.reactions {
		if key.storyID == storyID {
			delete(s.reactions, key)
		}
	}
	delete(s.audience, storyID)
	return nil
}

func (s *StoryStore) AudienceContains(_ context.Context, storyID, actorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audience[storyID][actorID], nil
}

func (s *StoryStore) AudienceFor(_ context.Context, actorID string, storyIDs []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]bool{}
	for _, id := range storyIDs {
		if s.audience[id][actorID] {
			out[id] = true
		}
	}
	return out, nil
}

func (s *StoryStore) AuthorStats(_ context.Context, authorID string, since time.Time) (core.AuthorStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := core.AuthorStats{Reactions: map[core.ReactionKind]int64{}}
	mine := map[string]bool{}

	for _, story := range s.stories {
		if story.AuthorID == authorID && story.CreatedAt.After(since) && story.RetiredAt == nil {
			stats.PostedCount++
			mine[story.ID] = true
		}
	}

	viewers := map[string]bool{}
	for key := range s.views {
		if mine[key.storyID] {
			stats.TotalViews++
			viewers[key.viewerID] = true
		}
	}
	stats.UniqueViewers = int64(len(viewers))

	for key := range s.reactions {
		if mine[key.storyID] {
			stats.Reactions[key.kind]++
		}
	}
	return stats, nil
}

func (s *StoryStore) InsertView(_ context.Context, view core.StoryView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := viewKey{view.StoryID, view.ViewerID}
	if _, ok := s.views[key]; ok {
		return false, nil
	}
	s.views[key] = view
	return true, nil
}

func (s *StoryStore) InsertReaction(_ context.Context, reaction core.Reaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reactionKey{reaction.StoryID, reaction.ActorID, reaction.Kind}
	if _, ok := s.reactions[key]; ok {
		return false, nil
	}
	s.reactions[key] = reaction
	return true, nil
}

func (s *StoryStore) ViewCount(storyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key := range s.views {
		if key.storyID == storyID {
			count++
		}
	}
	return count
}

func (s *StoryStore) ReactionCount(storyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key := range s.reactions {
		if key.storyID == storyID {
			count++
		}
	}
	return count
}

// FollowStore implements core.FollowRepository.
type FollowStore struct {
	mu    sync.Mutex
	edges map[[2]string]bool
}

func NewFollowStore() *FollowStore {
	return &FollowStore{edges: map[[2]string]bool{}}
}

func (f *FollowStore) Add(followerID, followeeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[[2]string{followerID, followeeID}] = true
}

func (f *FollowStore) Exists(_ context.Context, followerID, followeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[[2]string{followerID, followeeID}], nil
}

func (f *FollowStore) FollowingSet(_ context.Context, followerID string, followeeIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := map[string]bool{}
	for _, id := range followeeIDs {
		if f.edges[[2]string{followerID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

// CounterStore implements core.Counter with the same atomicity as Redis INCR.
type CounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	calls  int

	Err error
}

func NewCounterStore() *CounterStore {
	return &CounterStore{counts: map[string]int64{}}
}

func (c *CounterStore) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.Err != nil {
		return 0, c.Err
	}
	c.counts[key]++
	return c.counts[key], nil
}

// Calls reports how many increments were attempted, successful or not.
func (c *CounterStore) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Broadcaster implements core.Broadcaster, recording published events.
type Broadcaster struct {
	mu     sync.Mutex
	events []core.EngagementEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

func (b *Broadcaster) Publish(event core.EngagementEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *Broadcaster) Events() []core.EngagementEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.EngagementEvent(nil), b.events...)
}

// Cleaner implements core.MediaCleaner, counting cleanup instructions per
// key. FailTimes makes the first n calls per key fail.
type Cleaner struct {
	mu        sync.Mutex
	calls     map[string]int
	failures  map[string]int
	FailTimes int
	Err       error
}

func NewCleaner() *Cleaner {
	return &Cleaner{calls: map[string]int{}, failures: map[string]int{}}
}

func (c *Cleaner) Cleanup(_ context.Context, mediaKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[mediaKey]++
	if c.failures[mediaKey] < c.FailTimes {
		c.failures[mediaKey]++
		if c.Err != nil {
			return c.Err
		}
		return errors.New("cleanup failed")
	}
	return nil
}

func (c *Cleaner) Calls(mediaKey string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[mediaKey]
}

// Publisher implements core.Publisher, recording payloads per subject.
type Publisher struct {
	mu       sync.Mutex
	payloads map[string][][]byte

	Err error
}

func NewPublisher() *Publisher {
	return &Publisher{payloads: map[string][][]byte{}}
}

func (p *Publisher) Publish(subject string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.payloads[subject] = append(p.payloads[subject], payload)
	return nil
}

func (p *Publisher) Payloads(subject string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads[subject]...)
}
