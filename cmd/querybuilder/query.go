package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/saint-community/querybuilder/internal/config"
	"github.com/saint-community/querybuilder/internal/export"
	"github.com/saint-community/querybuilder/internal/history"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
)

var (
	querySelections bool
	queryLimit      int
	queryOffset     int
	queryFormat     string
	queryFavorite   string
)

var queryCmd = &cobra.Command{
	Use:     "query [filter-file]",
	Short:   "Search members with a filter tree or form selections",
	GroupID: "members",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := source.Config()
		group, err := queryFilter(cmd, args, cfg)
		if err != nil {
			return err
		}

		b, err := openBackend(cmd.Context(), cfg, history.SourceCLI, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		req := store.Request{Filter: group, Limit: queryLimit, Offset: queryOffset}
		return runQuery(cmd.Context(), cmd.OutOrStdout(), b.searcher, req, queryFormat)
	},
}

// queryFilter reads the filter from a saved favorite when --favorite is
// set, else from the input file
func queryFilter(cmd *cobra.Command, args []string, cfg *config.Config) (models.FilterGroup, error) {
	if queryFavorite != "" {
		m, err := openFavorites()
		if err != nil {
			return models.FilterGroup{}, err
		}
		return loadFavorite(m, queryFavorite)
	}
	data, err := readInput(cmd, args)
	if err != nil {
		return models.FilterGroup{}, err
	}
	return decodeFilter(data, querySelections, mapperFor(cfg))
}

// runQuery runs one search and prints the page as a table or in an
// export format
func runQuery(ctx context.Context, w io.Writer, searcher store.Searcher, req store.Request, format string) error {
	result, err := searcher.Search(ctx, req)
	if err != nil {
		return err
	}
	if format == "" || format == "table" {
		return printMemberTable(w, result)
	}
	return export.Write(w, format, result.Members)
}

func init() {
	queryCmd.Flags().BoolVarP(&querySelections, "selections", "s", false, "input is form selections instead of a filter tree")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "page size (default from store.default_limit)")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "rows to skip")
	queryCmd.Flags().StringVarP(&queryFavorite, "favorite", "f", "", "run a saved filter by name or id")
	queryCmd.Flags().StringVarP(&queryFormat, "format", "o", "table", "output format: table, csv, json or yaml")
}
