// Package config loads runtime configuration from environment variables and
// an optional config file, with code-level defaults for every tunable.
//
// All scoring weights and point tables are fixed constants inside their
// modules; what lives here are operational knobs (addresses, windows, TTLs)
// and the tuning constants the product team adjusts without a deploy
// (auto-trigger thresholds, confidence coefficients).
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration document.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	GeoIP      GeoIPConfig      `mapstructure:"geoip"`
	TrustScore TrustScoreConfig `mapstructure:"trust_score"`
	RiskAuth   RiskAuthConfig   `mapstructure:"risk_auth"`
	Fraud      FraudConfig      `mapstructure:"fraud"`
	Employee   EmployeeConfig   `mapstructure:"employee"`
	KillSwitch KillSwitchConfig `mapstructure:"kill_switch"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
}

type PostgresConfig struct {
	DSN          string        `mapstructure:"dsn"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
}

type GeoIPConfig struct {
	CityPath string `mapstructure:"city_path"`
}

type TrustScoreConfig struct {
	// Freshness is how long a snapshot satisfies GetScore before a
	// recompute is forced.
	Freshness time.Duration `mapstructure:"freshness"`
}

type RiskAuthConfig struct {
	// DependencyTimeout bounds every evidence read inside one assessment.
	DependencyTimeout time.Duration `mapstructure:"dependency_timeout"`
	// HighRiskCountries are ISO 3166-1 alpha-2 codes flagged by the
	// location evaluator.
	HighRiskCountries []string `mapstructure:"high_risk_countries"`
}

type FraudConfig struct {
	ModelVersion string `mapstructure:"model_version"`
	// Confidence blend: agreement share + factor-count share must sum to 1.
	ConfidenceAgreementWeight float64       `mapstructure:"confidence_agreement_weight"`
	ConfidenceFactorWeight    float64       `mapstructure:"confidence_factor_weight"`
	DependencyTimeout         time.Duration `mapstructure:"dependency_timeout"`
}

type EmployeeConfig struct {
	// BaselineWindow is the rolling window baselines are computed over.
	BaselineWindow time.Duration `mapstructure:"baseline_window"`
	// BaselineMinAge is the minimum age before a baseline is recomputed.
	BaselineMinAge time.Duration `mapstructure:"baseline_min_age"`
	// HighValueApprovalThreshold upgrades an approval burst to CRITICAL.
	HighValueApprovalThreshold float64 `mapstructure:"high_value_approval_threshold"`
}

type KillSwitchConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// Auto-trigger thresholds over the trailing hour.
	FraudRateThreshold float64       `mapstructure:"fraud_rate_threshold"`
	ErrorRateThreshold float64       `mapstructure:"error_rate_threshold"`
	VolumeMultiple     float64       `mapstructure:"volume_multiple"`
	AutoKillDuration   time.Duration `mapstructure:"auto_kill_duration"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
}

type AlertingConfig struct {
	DedupWindow        time.Duration `mapstructure:"dedup_window"`
	EscalationInterval time.Duration `mapstructure:"escalation_interval"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
}

// Load reads configuration with precedence: env > config file > defaults.
// Environment variables use the SIMPLY_ prefix with underscores, e.g.
// SIMPLY_KILL_SWITCH_CACHE_TTL=5s.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SIMPLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/simply")
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults + env are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the code-level defaults without reading the environment.
// Tests use this as a stable starting point.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err) // defaults are static; unmarshal cannot fail
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_signing_key", "dev-secret-key-change-in-production")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", "simply.audit.events")

	v.SetDefault("geoip.city_path", "")

	v.SetDefault("trust_score.freshness", 24*time.Hour)

	v.SetDefault("risk_auth.dependency_timeout", 2*time.Second)
	v.SetDefault("risk_auth.high_risk_countries", []string{"KP", "IR", "SY", "CU", "MM"})

	v.SetDefault("fraud.model_version", "heuristics-v2")
	v.SetDefault("fraud.confidence_agreement_weight", 0.6)
	v.SetDefault("fraud.confidence_factor_weight", 0.4)
	v.SetDefault("fraud.dependency_timeout", 2*time.Second)

	v.SetDefault("employee.baseline_window", 30*24*time.Hour)
	v.SetDefault("employee.baseline_min_age", 24*time.Hour)
	v.SetDefault("employee.high_value_approval_threshold", 100_000)

	v.SetDefault("kill_switch.cache_ttl", 10*time.Second)
	v.SetDefault("kill_switch.fraud_rate_threshold", 0.05)
	v.SetDefault("kill_switch.error_rate_threshold", 0.10)
	v.SetDefault("kill_switch.volume_multiple", 3.0)
	v.SetDefault("kill_switch.auto_kill_duration", 30*time.Minute)
	v.SetDefault("kill_switch.sweep_interval", time.Minute)

	v.SetDefault("alerting.dedup_window", 5*time.Minute)
	v.SetDefault("alerting.escalation_interval", 15*time.Minute)
	v.SetDefault("alerting.sweep_interval", time.Minute)
}
