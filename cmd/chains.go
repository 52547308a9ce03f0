package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "print the resolved chain config",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Chains)
	},
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}
