package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
)

var mapCmd = &cobra.Command{
	Use:     "map [selections-file]",
	Short:   "Turn form selections into a filter tree",
	Long:    "Reads selections as JSON or YAML from a file or stdin and prints the equivalent filter tree as JSON.",
	GroupID: "filters",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return runMap(cmd.OutOrStdout(), data, mapperFor(source.Config()))
	},
}

func runMap(w io.Writer, data []byte, mapper *filter.Mapper) error {
	sel, err := filter.ParseSelections(data)
	if err != nil {
		return err
	}
	return printJSON(w, mapper.Map(sel))
}

var (
	compileSelections bool
	compileSelect     bool
)

var compileCmd = &cobra.Command{
	Use:     "compile [filter-file]",
	Short:   "Compile a filter tree to a parameterized WHERE clause",
	GroupID: "filters",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		cfg := source.Config()
		group, err := decodeFilter(data, compileSelections, mapperFor(cfg))
		if err != nil {
			return err
		}
		table := ""
		if compileSelect {
			table = cfg.Store.Table
		}
		return runCompile(cmd.OutOrStdout(), group, table)
	},
}

type compiled struct {
	Where string `json:"where"`
	Args  []any  `json:"args"`
	Query string `json:"query,omitempty"`
}

// runCompile prints the WHERE clause and its arguments. A non-empty table
// adds the full page query run against it.
func runCompile(w io.Writer, group models.FilterGroup, table string) error {
	where, args, err := filter.NewBuilder().BuildWhere(group)
	if err != nil {
		return err
	}
	if args == nil {
		args = []any{}
	}
	out := compiled{Where: where, Args: args}
	if table != "" {
		out.Query = store.NewPostgres(nil, table, store.Limits{}, logger).SelectSQL(where, len(args))
	}
	return printJSON(w, out)
}

var fieldsCmd = &cobra.Command{
	Use:     "fields",
	Short:   "List the fields a filter can use",
	GroupID: "filters",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printFields(cmd.OutOrStdout())
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func init() {
	compileCmd.Flags().BoolVarP(&compileSelections, "selections", "s", false, "input is form selections instead of a filter tree")
	compileCmd.Flags().BoolVar(&compileSelect, "select", false, "also print the full page query")
}
