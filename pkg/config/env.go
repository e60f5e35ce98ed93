package config

const (
	EnvDataDir  = "DATA_DIR"
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvBusinessStartHour = "BUSINESS_START_HOUR"
	EnvBusinessEndHour   = "BUSINESS_END_HOUR"
	EnvHorizonDays       = "RESERVATION_HORIZON_DAYS"
	EnvRoundingStep      = "ROUNDING_STEP"

	EnvKafkaBrokers    = "KAFKA_BROKERS"
	EnvKafkaAuditTopic = "KAFKA_AUDIT_TOPIC"

	EnvMaxRequestSize  = "MAX_REQUEST_SIZE"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
