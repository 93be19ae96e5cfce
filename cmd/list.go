package cmd

import (
	"fmt"

	"github.com/deploymenttheory/go-nx-keyring/internal/common/hexutil"
	"github.com/deploymenttheory/go-nx-keyring/internal/keyring"
	"github.com/spf13/cobra"
)

var showKeys bool

// listCmd prints the named keys the keyring currently holds.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keys loaded from the configured key files",
	Run: func(cmd *cobra.Command, args []string) {
		keys := newKeyManager()

		s128, s256 := keys.LoadedKeyNames()
		for _, name := range s128 {
			if showKeys {
				idx, _ := keyring.Key128IndexForName(name)
				key := keys.GetKey128(idx)
				fmt.Printf("%s = %s\n", name, hexutil.Encode(key[:]))
			} else {
				fmt.Println(name)
			}
		}
		for _, name := range s256 {
			if showKeys {
				idx, _ := keyring.Key256IndexForName(name)
				key := keys.GetKey256(idx)
				fmt.Printf("%s = %s\n", name, hexutil.Encode(key[:]))
			} else {
				fmt.Println(name)
			}
		}

		fmt.Printf("\n%d named keys loaded, %d title keys\n", len(s128)+len(s256), keys.TitleKeyCount())
	},
}

func init() {
	listCmd.Flags().BoolVar(&showKeys, "show-keys", false, "Print key values instead of names only")
	rootCmd.AddCommand(listCmd)
}
