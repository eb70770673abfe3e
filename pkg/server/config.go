package server

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/textweave/notifier/pkg/metastore/db/dbcore"
)

type Config struct {
	ListenAddress string `mapstructure:"listen_address"`

	StoreProvider string          `mapstructure:"store_provider"`
	DBConfig      dbcore.DBConfig `mapstructure:"db"`
	SqlitePath    string          `mapstructure:"sqlite_path"`

	NotifierProvider string `mapstructure:"notifier_provider"`
	WebhookEndpoint  string `mapstructure:"webhook_endpoint"`
	PulsarURL        string `mapstructure:"pulsar_url"`
	PulsarTopic      string `mapstructure:"pulsar_topic"`

	JWTSecret string `mapstructure:"jwt_secret"`

	SchedulerDaily   time.Duration `mapstructure:"scheduler_daily"`
	SchedulerWeekly  time.Duration `mapstructure:"scheduler_weekly"`
	SchedulerMonthly time.Duration `mapstructure:"scheduler_monthly"`

	OtelEndpoint string `mapstructure:"otel_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// flagBindings maps config keys to the serve command's flag names.
var flagBindings = map[string]string{
	"listen_address":    "listen-address",
	"store_provider":    "store-provider",
	"db.username":       "username",
	"db.password":       "password",
	"db.address":        "db-address",
	"db.port":           "db-port",
	"db.db_name":        "db-name",
	"db.max_idle_conns": "max-idle-conns",
	"db.max_open_conns": "max-open-conns",
	"db.ssl_mode":       "ssl-mode",
	"sqlite_path":       "sqlite-path",
	"notifier_provider": "notifier-provider",
	"webhook_endpoint":  "webhook-endpoint",
	"pulsar_url":        "pulsar-url",
	"pulsar_topic":      "pulsar-topic",
	"jwt_secret":        "jwt-secret",
	"scheduler_daily":   "scheduler-daily",
	"scheduler_weekly":  "scheduler-weekly",
	"scheduler_monthly": "scheduler-monthly",
	"otel_endpoint":     "otel-endpoint",
	"service_name":      "service-name",
}

// LoadConfig merges an optional YAML config file into the flag-populated
// Config. Explicitly set flags win over the file, the file wins over flag
// defaults.
func LoadConfig(cmd *cobra.Command, path string, conf *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	for key, flag := range flagBindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return v.Unmarshal(conf)
}
