package cmd

import (
	"github.com/Robson-tech/docker-lsa/core"
	"github.com/Robson-tech/docker-lsa/state"
	"github.com/spf13/cobra"
)

// routerCmd represents the router command
var routerCmd = &cobra.Command{
	Use:   "router",
	Short: "Run a router",
	Long: `Runs a link-state router: originates LSAs for its configured
neighbours and attached hosts, floods received LSAs, and forwards DATA
and ACK datagrams along shortest paths.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return core.Bootstrap(centralConfigPath, nodeConfigPath, logPath, verbose, true)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(routerCmd)

	routerCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	routerCmd.Flags().BoolVarP(&state.DBG_log_table, "ltable", "t", false, "Log forwarding table rebuilds")
	routerCmd.Flags().BoolVarP(&state.DBG_log_lsdb, "llsdb", "d", false, "Log LSA acceptance")
	routerCmd.Flags().BoolVarP(&state.DBG_log_traffic, "ltraffic", "f", false, "Log per-datagram forwarding decisions")
}
