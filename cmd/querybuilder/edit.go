package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saint-community/querybuilder/internal/app"
	"github.com/saint-community/querybuilder/internal/history"
	"github.com/saint-community/querybuilder/internal/models"
)

var editSelections bool

var editCmd = &cobra.Command{
	Use:     "edit [filter-file]",
	Short:   "Build filters and browse results in the terminal",
	GroupID: "members",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := source.Config()

		var initial *models.FilterGroup
		if len(args) == 1 {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			group, err := decodeFilter(data, editSelections, mapperFor(cfg))
			if err != nil {
				return err
			}
			if err := group.Validate(); err != nil {
				return err
			}
			initial = &group
		}

		// The terminal belongs to the UI; only errors reach stderr
		uiLogger := logger.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))

		b, err := openBackend(cmd.Context(), cfg, history.SourceTUI, uiLogger)
		if err != nil {
			return err
		}
		defer b.Close()

		model := app.New(cfg, b.searcher, uiLogger)
		if initial != nil {
			model.SetFilter(*initial)
		}

		opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(cmd.Context())}
		if cfg.UI.MouseEnabled {
			opts = append(opts, tea.WithMouseCellMotion())
		}

		p := tea.NewProgram(model, opts...)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	},
}

func init() {
	editCmd.Flags().BoolVarP(&editSelections, "selections", "s", false, "input is form selections instead of a filter tree")
}
