package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saint-community/querybuilder/internal/history"
)

var (
	historyLimit  int
	historySearch string
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show recent searches",
	GroupID: "members",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := source.Config()
		path, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		hs, err := history.NewStore(path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer hs.Close()

		var entries []history.Entry
		if historySearch != "" {
			entries, err = hs.Search(historySearch, historyLimit)
		} else {
			entries, err = hs.Recent(historyLimit)
		}
		if err != nil {
			return err
		}
		return printHistory(cmd.OutOrStdout(), entries)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	historyCmd.Flags().StringVar(&historySearch, "search", "", "only show searches whose filter or WHERE clause contains this text")
}
