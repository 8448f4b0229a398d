package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"resty.dev/v3"

	"storyd/internal/config"
)

// Cleaner asks the media service to drop a blob by its opaque key. The key is
// never interpreted here.
type Cleaner struct {
	Logger *slog.Logger
	Config *config.Config

	client *resty.Client
}

func (c *Cleaner) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "media.Cleaner")

	c.client = resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:         1 * time.Second,
		DialerKeepAlive:       1 * time.Second,
		IdleConnTimeout:       1 * time.Second,
		TLSHandshakeTimeout:   1 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 1 * time.Second,
	})

	return nil
}

func (c *Cleaner) Cleanup(ctx context.Context, mediaKey string) error {
	res, err := c.client.R().
		WithContext(ctx).
		Delete(c.Config.MediaURL + "/media/" + url.PathEscape(mediaKey))
	if err != nil {
		return err
	}

	if res.IsError() {
		return fmt.Errorf("media cleanup rejected: %s", res.Status())
	}
	return nil
}

func (c *Cleaner) Shutdown(context.Context) error {
	return c.client.Close()
}
