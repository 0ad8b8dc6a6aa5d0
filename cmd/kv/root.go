package kv

import (
	"github.com/spf13/cobra"
	"github.com/stashdb/stashdb/cmd/util"
	"github.com/stashdb/stashdb/rpc/client"
)

var (
	remoteHost client.IRemoteHost

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// The handle of the store to operate on (as printed by 'kv open')
	KeyValueCommands.PersistentFlags().Uint32("handle", 0, util.WrapString("Handle of the store to operate on"))

	// Add subcommands
	KeyValueCommands.AddCommand(openCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(destroyCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC host client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the host client
	remoteHost, err = client.NewRPCHost(
		*config,
		t,
		s,
	)

	return err
}
