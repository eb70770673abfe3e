package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/textweave/notifier/cmd/flag"
	"github.com/textweave/notifier/pkg/server"
	"github.com/textweave/notifier/pkg/utils"
)

var (
	conf       = server.Config{}
	configFile string

	Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the notification engine",
		Long:  `Start the notification engine`,
		Run:   exec,
	}
)

func init() {

	// HTTP
	flag.HTTPAddr(Cmd, &conf.ListenAddress)
	Cmd.Flags().StringVar(&configFile, "config", "", "Optional YAML config file; explicit flags override it")

	// Store
	Cmd.Flags().StringVar(&conf.StoreProvider, "store-provider", "memory", "Store provider (memory, database)")
	Cmd.Flags().StringVar(&conf.DBConfig.Username, "username", "notifier", "Metastore username")
	Cmd.Flags().StringVar(&conf.DBConfig.Password, "password", "notifier", "Metastore password")
	Cmd.Flags().StringVar(&conf.DBConfig.Address, "db-address", "postgres", "Metastore db address")
	Cmd.Flags().IntVar(&conf.DBConfig.Port, "db-port", 5432, "Metastore db port")
	Cmd.Flags().StringVar(&conf.DBConfig.DBName, "db-name", "notifier", "Metastore db name")
	Cmd.Flags().IntVar(&conf.DBConfig.MaxIdleConns, "max-idle-conns", 10, "Metastore max idle connections")
	Cmd.Flags().IntVar(&conf.DBConfig.MaxOpenConns, "max-open-conns", 10, "Metastore max open connections")
	Cmd.Flags().StringVar(&conf.DBConfig.SslMode, "ssl-mode", "disable", "SSL mode for database connection")
	Cmd.Flags().StringVar(&conf.SqlitePath, "sqlite-path", "", "Use a sqlite database at this path instead of Postgres")

	// Delivery
	Cmd.Flags().StringVar(&conf.NotifierProvider, "notifier-provider", "memory", "Notifier provider (memory, webhook, pulsar)")
	Cmd.Flags().StringVar(&conf.WebhookEndpoint, "webhook-endpoint", "", "Renderer+mailer webhook endpoint")
	Cmd.Flags().StringVar(&conf.PulsarURL, "pulsar-url", "pulsar://localhost:6650", "Pulsar broker URL")
	Cmd.Flags().StringVar(&conf.PulsarTopic, "pulsar-topic", "textweave-notification", "Pulsar notification topic")

	// Auth
	Cmd.Flags().StringVar(&conf.JWTSecret, "jwt-secret", "", "Shared HS256 secret for service tokens; empty disables auth")

	// Digest scheduler (zero disables; deployments with an external
	// scheduler drive the run endpoint instead)
	Cmd.Flags().DurationVar(&conf.SchedulerDaily, "scheduler-daily", 0, "In-process daily digest interval")
	Cmd.Flags().DurationVar(&conf.SchedulerWeekly, "scheduler-weekly", 0, "In-process weekly digest interval")
	Cmd.Flags().DurationVar(&conf.SchedulerMonthly, "scheduler-monthly", 0, "In-process monthly digest interval")

	// Tracing
	Cmd.Flags().StringVar(&conf.OtelEndpoint, "otel-endpoint", "", "OTLP collector endpoint; empty disables tracing")
	Cmd.Flags().StringVar(&conf.ServiceName, "service-name", "notifier", "Service name reported to tracing")
}

func exec(cmd *cobra.Command, _ []string) {
	utils.RunProcess(func() (io.Closer, error) {
		if configFile != "" {
			if err := server.LoadConfig(cmd, configFile, &conf); err != nil {
				return nil, err
			}
		}
		return server.New(conf)
	})
}
