package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/content"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the sections a visitor can navigate to",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := content.Load(cfg.ContentPath)
		if err != nil {
			return err
		}
		if !p.HasSection(cfg.Navigation.DefaultSection) {
			return fmt.Errorf("default section %q is not in the content", cfg.Navigation.DefaultSection)
		}

		out := cmd.OutOrStdout()
		for _, s := range p.Sections {
			marker := " "
			if s.ID == cfg.Navigation.DefaultSection {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-12s %s\n", marker, s.ID, s.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}
