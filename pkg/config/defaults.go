package config

import "time"

const (
	DefaultDataDir = "data"
	DefaultPort    = "8080"

	DefaultLogLevel = "info"

	DefaultBusinessStartHour = 8
	DefaultBusinessEndHour   = 19
	DefaultHorizonDays       = 30
	DefaultRoundingStep      = 10 * time.Minute

	DefaultKafkaAuditTopic = "reservation-events"

	DefaultMaxRequestSize  = 1 * 1024 * 1024 // 1MB
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
