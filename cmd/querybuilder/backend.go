package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saint-community/querybuilder/internal/config"
	"github.com/saint-community/querybuilder/internal/db/connection"
	"github.com/saint-community/querybuilder/internal/db/metadata"
	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/history"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
)

// backend is the searcher a command runs against plus what must be closed
// once the command is done
type backend struct {
	searcher store.Searcher
	history  *history.Store
	closers  []func() error
}

func (b *backend) Close() error {
	var result *multierror.Error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func limitsFor(cfg *config.Config) store.Limits {
	return store.Limits{Default: cfg.Store.DefaultLimit, Max: cfg.Store.MaxLimit}
}

func mapperFor(cfg *config.Config) *filter.Mapper {
	return filter.NewMapper(filter.WithEpochStart(cfg.Mapper.EpochStart))
}

// openBackend connects the configured member store. When history is
// enabled every search is recorded under the given source.
func openBackend(ctx context.Context, cfg *config.Config, source string, log *zap.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		members, err := store.LoadFixture(cfg.Store.FixturePath)
		if err != nil {
			return nil, err
		}
		log.Debug("memory store loaded", zap.String("fixture", cfg.Store.FixturePath), zap.Int("members", len(members)))
		b.searcher = store.NewMemory(members, limitsFor(cfg))
	default:
		pool, err := connection.NewPool(ctx, cfg.Database, connection.NewPasswordStore())
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error {
			pool.Close()
			return nil
		})
		missing, err := metadata.MissingColumns(ctx, pool.DB(), cfg.Store.Table, store.MemberColumns())
		if err == nil && len(missing) > 0 {
			err = fmt.Errorf("table %s is missing columns: %s", cfg.Store.Table, strings.Join(missing, ", "))
		}
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		log.Debug("connected to postgres",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name))
		b.searcher = store.NewPostgres(pool.DB(), cfg.Store.Table, limitsFor(cfg), log)
	}

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err == nil {
			b.history, err = history.NewStore(path)
		}
		if err != nil {
			// Searching still works without a history database
			log.Warn("search history disabled", zap.Error(err))
		} else {
			b.closers = append(b.closers, b.history.Close)
			b.searcher = history.NewRecorder(b.searcher, b.history, source, log)
		}
	}
	return b, nil
}

// readInput reads the file named by the first argument, or stdin when there
// is none or it is "-"
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

// decodeFilter parses input as a filter tree, or as form selections when
// selections is set
func decodeFilter(data []byte, selections bool, mapper *filter.Mapper) (models.FilterGroup, error) {
	if !selections {
		return models.ParseFilterGroup(data)
	}
	sel, err := filter.ParseSelections(data)
	if err != nil {
		return models.FilterGroup{}, err
	}
	return mapper.Map(sel), nil
}
