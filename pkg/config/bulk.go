package config

import "time"

// BulkConfig configures the dispatch engine and job store.
type BulkConfig struct {
	// SendInterval is the pause between consecutive sends within one job.
	SendInterval time.Duration

	// MaxRecipients is the per-job batch ceiling.
	MaxRecipients int

	// HistoryLimit bounds the completed-job history.
	HistoryLimit int

	// JobRetention is how long terminal jobs stay pollable before the
	// sweep evicts them. Zero disables eviction entirely.
	JobRetention time.Duration

	// SweepSchedule is the cron spec driving the retention sweep.
	SweepSchedule string
}

func loadBulkConfig() BulkConfig {
	return BulkConfig{
		SendInterval:  getEnvDuration("BULK_SEND_INTERVAL", time.Second),
		MaxRecipients: getEnvInt("BULK_MAX_RECIPIENTS", 10000),
		HistoryLimit:  getEnvInt("BULK_HISTORY_LIMIT", 1000),
		JobRetention:  getEnvDuration("BULK_JOB_RETENTION", 24*time.Hour),
		SweepSchedule: getEnv("BULK_SWEEP_SCHEDULE", "@every 1h"),
	}
}
