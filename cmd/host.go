package cmd

import (
	"github.com/Robson-tech/docker-lsa/core"
	"github.com/Robson-tech/docker-lsa/state"
	"github.com/spf13/cobra"
)

// hostCmd represents the host command
var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run a host",
	Long: `Runs a host: sends a startup burst of DATA datagrams to random
known hosts, acknowledges and answers received traffic, and retransmits
unacknowledged requests up to the attempt limit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return core.Bootstrap(centralConfigPath, nodeConfigPath, logPath, verbose, false)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(hostCmd)

	hostCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	hostCmd.Flags().BoolVarP(&state.DBG_log_traffic, "ltraffic", "f", false, "Log received traffic")
}
