// Package config loads the application configuration from file and
// environment. Every value has a default so the binary runs with an empty
// environment against a local database.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Commission CommissionConfig `mapstructure:"commission"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CommissionConfig carries the MiaPass payout policy. It is read once at
// startup and frozen into a commission domain Policy; nothing mutates it
// afterwards.
type CommissionConfig struct {
	BaseRate             string `mapstructure:"base_rate"`
	OverThresholdRate    string `mapstructure:"over_threshold_rate"`
	MonthlyThreshold     int    `mapstructure:"monthly_threshold"`
	ReferralL1Amount     string `mapstructure:"referral_l1_amount"`
	ReferralL2Amount     string `mapstructure:"referral_l2_amount"`
	DirectorTotalRate    string `mapstructure:"director_total_rate"`
	DirectorSocialRate   string `mapstructure:"director_social_rate"`
	CommunityManagerRate string `mapstructure:"community_manager_rate"`
	CommissionBase       string `mapstructure:"commission_base"`
	CommissionVAT        string `mapstructure:"commission_vat"`
	SocialChannel        string `mapstructure:"social_channel"`

	// ActiveStates is the whitelist of subscription states that count as
	// "active" for duplicate prevention and tier counting.
	ActiveStates []string `mapstructure:"active_states"`
}

type NotifierConfig struct {
	PollInterval string `mapstructure:"poll_interval"`
	BatchSize    int    `mapstructure:"batch_size"`
}

func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=miapass password=miapass dbname=miapass port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	// MIA PASS policy v1.1 defaults.
	v.SetDefault("commission.base_rate", "0.25")
	v.SetDefault("commission.over_threshold_rate", "0.30")
	v.SetDefault("commission.monthly_threshold", 30)
	v.SetDefault("commission.referral_l1_amount", "10000")
	v.SetDefault("commission.referral_l2_amount", "5000")
	v.SetDefault("commission.director_total_rate", "0.06")
	v.SetDefault("commission.director_social_rate", "0.10")
	v.SetDefault("commission.community_manager_rate", "0.05")
	v.SetDefault("commission.commission_base", "199900")
	v.SetDefault("commission.commission_vat", "37981")
	v.SetDefault("commission.social_channel", "social-media")
	v.SetDefault("commission.active_states", []string{"ACTIVE"})

	v.SetDefault("notifier.poll_interval", "5s")
	v.SetDefault("notifier.batch_size", 50)

	v.SetConfigName("miapass")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/miapass")

	v.SetEnvPrefix("MIAPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
