package cmd

import (
	"fmt"

	"github.com/deploymenttheory/go-nx-keyring/internal/common/hexutil"
	"github.com/deploymenttheory/go-nx-keyring/internal/logger"
	"github.com/spf13/cobra"
)

// deriveCmd runs seed discovery and SD storage key derivation. A freshly
// discovered seed is persisted to the autogenerated key file, so subsequent
// runs load it without rescanning the system save.
var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the SD seed and SD storage keys from loaded key material",
	Run: func(cmd *cobra.Command, args []string) {
		keys := newKeyManager()

		keys.DeriveSDSeedLazy()
		sdKeys, err := keys.DeriveSDKeys()
		if err != nil {
			logger.LogError("SD key derivation failed", err, nil)
			fmt.Printf("cannot derive sd storage keys: %v\n", err)
			return
		}

		fmt.Printf("sd_save_key = %s\n", hexutil.Encode(sdKeys[0][:]))
		fmt.Printf("sd_nca_key  = %s\n", hexutil.Encode(sdKeys[1][:]))
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
}
