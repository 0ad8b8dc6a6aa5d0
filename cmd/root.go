package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stashdb/stashdb/cmd/kv"
	"github.com/stashdb/stashdb/cmd/serve"
	"github.com/stashdb/stashdb/cmd/util"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "stashdb",
		Short: "embedded key-value store host",
		Long: fmt.Sprintf(`stashdb (v%s)

A host process for embedded key-value stores. Multiple independent
stores can be opened, read and written concurrently, each addressed
by a numeric handle, either in-process or over RPC.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of stashdb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stashdb v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
