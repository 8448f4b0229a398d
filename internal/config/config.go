package config

import "time"

type Config struct {
	DatabaseURL string `flag:"database-url"`
	DBInit      bool   `flag:"db-init"`
	RedisURL    string `flag:"redis-url"`
	NATSURL     string `flag:"nats-url"`
	MediaURL    string `flag:"media-url"`
	MetricsAddr string `flag:"metrics-addr"`
	LogLevel    string `flag:"log-level"`

	StoryTTL time.Duration `flag:"story-ttl"`

	SweepInterval  time.Duration `flag:"sweep-interval"`
	SweepBatchSize int           `flag:"sweep-batch"`

	RateWindow         time.Duration `flag:"rate-window"`
	RateLimitStories   int           `flag:"rate-limit-stories"`
	RateLimitReactions int           `flag:"rate-limit-reactions"`
	RateLimitViews     int           `flag:"rate-limit-views"`
	RateFailOpen       bool          `flag:"rate-fail-open"`

	EventBuffer int `flag:"event-buffer"`
}
