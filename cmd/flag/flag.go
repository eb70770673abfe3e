package flag

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	DefaultHTTPPort = 8080
)

func HTTPAddr(cmd *cobra.Command, conf *string) {
	cmd.Flags().StringVarP(conf, "listen-address", "l", fmt.Sprintf("0.0.0.0:%d", DefaultHTTPPort), "HTTP service bind address")
}
