package metrics

import (
	"context"
	"log/slog"
	"time"

	"storyd/internal/core"
	"storyd/internal/persistence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm/schema"
)

var (
	tableCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storyd_table_estimated_count",
		Help: "Estimated record count for a table.",
	}, []string{"table"})
)

// Collector samples cheap table-size estimates so dashboards can watch story
// and engagement growth without counting rows.
type Collector struct {
	Logger *slog.Logger
	DB     *persistence.DB
}

func (c *Collector) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "metrics.Collector")
	return nil
}

func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, tabler := range []schema.Tabler{
				core.Story{}, core.StoryView{}, core.Reaction{},
			} {
				if err := c.collectTableEstimatedCount(tabler); err != nil {
					c.Logger.Warn("collecting table estimate", "table", tabler.TableName(), "error", err)
				}
			}
		}
	}
}

func (c *Collector) collectTableEstimatedCount(tabler schema.Tabler) error {
	count, err := c.DB.EstimatedCount(tabler.TableName())
	if err != nil {
		return err
	}

	tableCount.WithLabelValues(tabler.TableName()).Set(float64(count))
	return nil
}
