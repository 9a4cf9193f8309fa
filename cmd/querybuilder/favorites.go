package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saint-community/querybuilder/internal/config"
	"github.com/saint-community/querybuilder/internal/favorites"
	"github.com/saint-community/querybuilder/internal/models"
)

var (
	favoriteDescription string
	favoriteTags        []string
	favoriteSelections  bool
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage saved filters",
	GroupID: "filters",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list [text]",
	Short: "List saved filters, optionally matching text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openFavorites()
		if err != nil {
			return err
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		return printFavorites(cmd.OutOrStdout(), m.Search(query))
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <name> [filter-file]",
	Short: "Save a filter tree under a name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openFavorites()
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args[1:])
		if err != nil {
			return err
		}
		group, err := decodeFilter(data, favoriteSelections, mapperFor(source.Config()))
		if err != nil {
			return err
		}
		fav, err := m.Add(args[0], favoriteDescription, group, favoriteTags)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s)\n", fav.Name, fav.ID)
		return nil
	},
}

var favoritesShowCmd = &cobra.Command{
	Use:   "show <name-or-id>",
	Short: "Print a saved filter tree as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openFavorites()
		if err != nil {
			return err
		}
		fav, err := m.Get(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), fav.Filter)
	},
}

var favoritesDeleteCmd = &cobra.Command{
	Use:   "delete <name-or-id>",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openFavorites()
		if err != nil {
			return err
		}
		fav, err := m.Get(args[0])
		if err != nil {
			return err
		}
		if err := m.Delete(fav.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", fav.Name)
		return nil
	},
}

func openFavorites() (*favorites.Manager, error) {
	dir, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return favorites.NewManager(dir)
}

// loadFavorite returns the saved filter and counts the use
func loadFavorite(m *favorites.Manager, name string) (models.FilterGroup, error) {
	fav, err := m.Get(name)
	if err != nil {
		return models.FilterGroup{}, err
	}
	if err := m.RecordUsage(fav.ID); err != nil {
		logger.Sugar().Warnf("failed to record favorite usage: %v", err)
	}
	return fav.Filter, nil
}

func printFavorites(w io.Writer, favs []models.Favorite) error {
	if len(favs) == 0 {
		_, err := fmt.Fprintln(w, "No saved filters")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUSED\tTAGS\tFILTER")
	for _, f := range favs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", f.Name, f.UsageCount, strings.Join(f.Tags, ","), summarizeFilter(f.Filter))
	}
	return tw.Flush()
}

// summarizeFilter renders the top level of a tree on one line
func summarizeFilter(g models.FilterGroup) string {
	if len(g.Conditions) == 0 {
		return "(everything)"
	}
	parts := make([]string, 0, len(g.Conditions))
	for _, n := range g.Conditions {
		switch c := n.(type) {
		case models.FilterCondition:
			parts = append(parts, c.String())
		case models.FilterGroup:
			parts = append(parts, fmt.Sprintf("(%d conditions)", c.Len()))
		}
	}
	return strings.Join(parts, " "+string(g.Operator)+" ")
}

func init() {
	favoritesAddCmd.Flags().StringVarP(&favoriteDescription, "description", "d", "", "description")
	favoritesAddCmd.Flags().StringSliceVarP(&favoriteTags, "tag", "t", nil, "tag (repeatable)")
	favoritesAddCmd.Flags().BoolVarP(&favoriteSelections, "selections", "s", false, "input is form selections instead of a filter tree")

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesShowCmd)
	favoritesCmd.AddCommand(favoritesDeleteCmd)
}
