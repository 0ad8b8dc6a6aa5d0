package kv

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stashdb/stashdb/cmd/util"
	"github.com/stashdb/stashdb/lib/engine"
)

var (
	openCmd = &cobra.Command{
		Use:   "open [path]",
		Short: "Opens a store and prints its handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			create, err := cmd.Flags().GetBool("create")
			if err != nil {
				return err
			}
			keepLogFileNum, err := cmd.Flags().GetUint32("keep-log-file-num")
			if err != nil {
				return err
			}
			handle, err := remoteHost.Connect(path, engine.OpenOptions{
				CreateIfMissing: create,
				KeepLogFileNum:  int(keepLogFileNum),
			})
			if err != nil {
				return err
			}
			fmt.Printf("handle=%d\n", handle)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := remoteHost.SetItem(util.GetHandle(), key, value); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := remoteHost.GetItem(util.GetHandle(), key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "Lists all keys with the given prefix in ascending order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := remoteHost.GetKeys(util.GetHandle(), prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := remoteHost.RemoveItem(util.GetHandle(), key); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Closes a store and deletes its files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := remoteHost.Close(util.GetHandle()); err != nil {
				return err
			} else {
				fmt.Println("destroyed successfully")
			}
			return nil
		},
	}
)

func init() {
	openCmd.Flags().Bool("create", false, util.WrapString("Create the store if it does not exist"))
	openCmd.Flags().Uint32("keep-log-file-num", 0, util.WrapString("How many obsolete log files the engine keeps around (0 uses the engine default)"))
}
