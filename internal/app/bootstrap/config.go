package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL     string
	DatabaseMaxConn int32
	RedisURL        string
	JWTSecret       string

	KafkaBrokers        []string
	TopicDomainEvents   string
	TopicAnalytics      string
	TopicDLQ            string
	OutboxFlushInterval time.Duration

	FeeCeilingBasisPoints uint32
	DefaultFeeBasisPoints uint32
	FeeCollector          string
	RefundGracePeriod     time.Duration
	MaxSplitRecipients    int
	MaxMetadataLength     int
	GenesisAdmin          string

	IdempotencyTTL       time.Duration
	OutboxFlushBatchSize int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Engine struct {
		FeeCeilingBasisPoints uint32 `yaml:"fee_ceiling_basis_points"`
		// Pointer so an explicit zero (fee-free platform) is distinguishable
		// from the field being absent.
		DefaultFeeBasisPoints *uint32 `yaml:"default_fee_basis_points"`
		FeeCollector          string `yaml:"fee_collector"`
		RefundGraceHours      int    `yaml:"refund_grace_hours"`
		MaxSplitRecipients    int    `yaml:"max_split_recipients"`
		MaxMetadataLength     int    `yaml:"max_metadata_length"`
		GenesisAdmin          string `yaml:"genesis_admin"`
	} `yaml:"engine"`
	Dependencies struct {
		DatabaseURL       string   `yaml:"database_url"`
		RedisURL          string   `yaml:"redis_url"`
		JWTSecret         string   `yaml:"jwt_secret"`
		KafkaBrokers      []string `yaml:"kafka_brokers"`
		TopicDomainEvents string   `yaml:"topic_domain_events"`
		TopicAnalytics    string   `yaml:"topic_analytics_events"`
		TopicDLQ          string   `yaml:"topic_dlq"`
	} `yaml:"dependencies"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "payment-engine",
		HTTPPort:              8080,
		GRPCPort:              9090,
		DatabaseMaxConn:       16,
		TopicDomainEvents:     "payments.events",
		TopicAnalytics:        "payments.analytics",
		TopicDLQ:              "payment-engine.dlq",
		OutboxFlushInterval:   2 * time.Second,
		FeeCeilingBasisPoints: 500,
		DefaultFeeBasisPoints: 25,
		FeeCollector:          "treasury",
		RefundGracePeriod:     72 * time.Hour,
		MaxSplitRecipients:    20,
		MaxMetadataLength:     256,
		GenesisAdmin:          "root",
		IdempotencyTTL:        7 * 24 * time.Hour,
		OutboxFlushBatchSize:  100,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Engine.FeeCeilingBasisPoints > 0 {
			cfg.FeeCeilingBasisPoints = f.Engine.FeeCeilingBasisPoints
		}
		if f.Engine.DefaultFeeBasisPoints != nil {
			cfg.DefaultFeeBasisPoints = *f.Engine.DefaultFeeBasisPoints
		}
		if f.Engine.FeeCollector != "" {
			cfg.FeeCollector = f.Engine.FeeCollector
		}
		if f.Engine.RefundGraceHours > 0 {
			cfg.RefundGracePeriod = time.Duration(f.Engine.RefundGraceHours) * time.Hour
		}
		if f.Engine.MaxSplitRecipients > 0 {
			cfg.MaxSplitRecipients = f.Engine.MaxSplitRecipients
		}
		if f.Engine.MaxMetadataLength > 0 {
			cfg.MaxMetadataLength = f.Engine.MaxMetadataLength
		}
		if f.Engine.GenesisAdmin != "" {
			cfg.GenesisAdmin = f.Engine.GenesisAdmin
		}
		cfg.DatabaseURL = f.Dependencies.DatabaseURL
		cfg.RedisURL = f.Dependencies.RedisURL
		cfg.JWTSecret = f.Dependencies.JWTSecret
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.TopicDomainEvents != "" {
			cfg.TopicDomainEvents = f.Dependencies.TopicDomainEvents
		}
		if f.Dependencies.TopicAnalytics != "" {
			cfg.TopicAnalytics = f.Dependencies.TopicAnalytics
		}
		if f.Dependencies.TopicDLQ != "" {
			cfg.TopicDLQ = f.Dependencies.TopicDLQ
		}
	}

	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.TopicDomainEvents = envOrDefault("KAFKA_TOPIC_DOMAIN_EVENTS", cfg.TopicDomainEvents)
	cfg.TopicAnalytics = envOrDefault("KAFKA_TOPIC_ANALYTICS_EVENTS", cfg.TopicAnalytics)
	cfg.TopicDLQ = envOrDefault("KAFKA_TOPIC_DLQ", cfg.TopicDLQ)
	cfg.FeeCollector = envOrDefault("FEE_COLLECTOR", cfg.FeeCollector)
	cfg.GenesisAdmin = envOrDefault("GENESIS_ADMIN", cfg.GenesisAdmin)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.FeeCeilingBasisPoints = uint32(envInt("FEE_CEILING_BASIS_POINTS", int(cfg.FeeCeilingBasisPoints)))
	cfg.DefaultFeeBasisPoints = uint32(envInt("DEFAULT_FEE_BASIS_POINTS", int(cfg.DefaultFeeBasisPoints)))
	cfg.RefundGracePeriod = time.Duration(envInt("REFUND_GRACE_HOURS", int(cfg.RefundGracePeriod.Hours()))) * time.Hour
	cfg.MaxSplitRecipients = envInt("MAX_SPLIT_RECIPIENTS", cfg.MaxSplitRecipients)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.OutboxFlushInterval = time.Duration(envInt("OUTBOX_FLUSH_SECONDS", int(cfg.OutboxFlushInterval.Seconds()))) * time.Second

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
