package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"yeyak/pkg/logger"
)

type Config struct {
	DataDir string
	Port    string

	BusinessStartHour int
	BusinessEndHour   int
	HorizonDays       int
	RoundingStep      time.Duration

	KafkaBrokers    []string
	KafkaAuditTopic string

	MaxRequestSize  int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := &Config{
		DataDir: getEnvStr(EnvDataDir, DefaultDataDir),
		Port:    getEnvStr(EnvPort, DefaultPort),

		BusinessStartHour: getEnvNum(EnvBusinessStartHour, DefaultBusinessStartHour),
		BusinessEndHour:   getEnvNum(EnvBusinessEndHour, DefaultBusinessEndHour),
		HorizonDays:       getEnvNum(EnvHorizonDays, DefaultHorizonDays),
		RoundingStep:      getEnvDuration(EnvRoundingStep, DefaultRoundingStep),

		KafkaBrokers:    getEnvList(EnvKafkaBrokers),
		KafkaAuditTopic: getEnvStr(EnvKafkaAuditTopic, DefaultKafkaAuditTopic),

		MaxRequestSize:  getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.DataDir == "" {
		errs = append(errs, "DataDir cannot be empty")
	}

	if cfg.BusinessStartHour < 0 || cfg.BusinessStartHour > 23 {
		errs = append(errs, fmt.Sprintf("BusinessStartHour must be between 0 and 23, got: %d", cfg.BusinessStartHour))
	}
	if cfg.BusinessEndHour < 1 || cfg.BusinessEndHour > 24 {
		errs = append(errs, fmt.Sprintf("BusinessEndHour must be between 1 and 24, got: %d", cfg.BusinessEndHour))
	}
	if cfg.BusinessEndHour <= cfg.BusinessStartHour {
		errs = append(errs, fmt.Sprintf("BusinessEndHour (%d) must be after BusinessStartHour (%d)", cfg.BusinessEndHour, cfg.BusinessStartHour))
	}
	if cfg.HorizonDays <= 0 {
		errs = append(errs, fmt.Sprintf("HorizonDays must be positive, got: %d", cfg.HorizonDays))
	}
	if cfg.RoundingStep <= 0 || cfg.RoundingStep > time.Hour {
		errs = append(errs, fmt.Sprintf("RoundingStep must be between 1m and 1h, got: %s", cfg.RoundingStep))
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAuditTopic == "" {
		errs = append(errs, "KafkaAuditTopic cannot be empty when KafkaBrokers is set")
	}

	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"data_dir", cfg.DataDir,
		"port", cfg.Port,
		"business_start_hour", cfg.BusinessStartHour,
		"business_end_hour", cfg.BusinessEndHour,
		"horizon_days", cfg.HorizonDays,
		"rounding_step", cfg.RoundingStep,
		"kafka_brokers", strings.Join(cfg.KafkaBrokers, ","),
		"kafka_audit_topic", cfg.KafkaAuditTopic,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
