package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/textweave/notifier/pkg/utils"
)

var (
	rootCmd = &cobra.Command{
		Use:   "notifier",
		Short: "TextWeave notifier root command",
		Long:  `TextWeave notifier root command`,
	}
)

func init() {
	rootCmd.AddCommand(Cmd)
}

func main() {
	utils.LogLevel = zerolog.DebugLevel
	utils.ConfigureLogger()
	if _, err := maxprocs.Set(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
