package engagements

import (
	"context"
	"log/slog"

	"gorm.io/gorm/clause"

	"storyd/internal/core"
	"storyd/internal/persistence"
)

// Repository writes engagement records. Uniqueness lives in the schema, so
// duplicates are resolved by the database, never by check-then-insert.
type Repository struct {
	Logger *slog.Logger
	DB     *persistence.DB
}

func (r *Repository) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "engagements.Repository")
	return nil
}

// InsertView is an atomic insert-or-noop keyed by (story, viewer). Returns
// true when a new row was written.
func (r *Repository) InsertView(ctx context.Context, view core.StoryView) (bool, error) {
	res := r.DB.Model(&core.StoryView{}).
		WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&view)

	return res.RowsAffected > 0, res.Error
}

// InsertReaction is an atomic insert-or-noop keyed by (story, actor, kind).
func (r *Repository) InsertReaction(ctx context.Context, reaction core.Reaction) (bool, error) {
	res := r.DB.Model(&core.Reaction{}).
		WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reaction)

	return res.RowsAffected > 0, res.Error
}
