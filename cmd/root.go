package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	centralConfigPath string
	nodeConfigPath    string
	logPath           string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lsa",
	Short: "Link-state routing over UDP",
	Long: `docker-lsa runs a small link-state routing network: routers flood
link state advertisements and forward datagrams along shortest paths,
hosts exchange reliable request/response traffic through their router.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&centralConfigPath, "central-config", "c", "central.yaml", "network-global config")
	rootCmd.PersistentFlags().StringVarP(&nodeConfigPath, "node-config", "n", "node.yaml", "node-specific config")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", "", "also write logs to this file")
}
