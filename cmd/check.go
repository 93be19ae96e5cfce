package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// checkCmd diagnoses the keyring state: which base key files are present
// and, for the SD storage keys, exactly which derivation operand is missing.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report key file presence and missing derivation operands",
	Run: func(cmd *cobra.Command, args []string) {
		keys := newKeyManager()

		reportFile := func(label string, present bool) {
			state := "missing"
			if present {
				state = "found"
			}
			fmt.Printf("%-18s %s\n", label+":", state)
		}
		reportFile("general key file", keys.KeyFileExists(false))
		reportFile("title key file", keys.KeyFileExists(true))

		keys.DeriveSDSeedLazy()
		if _, err := keys.DeriveSDKeys(); err != nil {
			fmt.Printf("sd storage keys:   not derivable (%v)\n", err)
			return
		}
		fmt.Println("sd storage keys:   derivable")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
