package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print visit and navigation statistics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// hashes are only read here, so the salt does not matter
		st, err := store.Open(cfg.DBPath, "")
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
