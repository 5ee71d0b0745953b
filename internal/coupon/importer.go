package coupon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Importer loads coupon definition files and upserts them into a Store.
type Importer struct {
	loader Loader
	store  Store
	logger zerolog.Logger
}

// NewImporter creates a coupon importer.
func NewImporter(loader Loader, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "coupon-importer").Logger(),
	}
}

// Load reads every file concurrently and merges them in argument order, so a
// code defined in several files takes the fields of the last one.
func (i *Importer) Load(ctx context.Context, filePaths []string) (*Catalog, error) {
	catalogs := make([]*Catalog, len(filePaths))

	g, gctx := errgroup.WithContext(ctx)
	for idx, path := range filePaths {
		g.Go(func() error {
			catalog, err := i.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load coupon file %s: %w", path, err)
			}
			catalogs[idx] = catalog
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		i.logger.Error().Err(err).Msg("coupon import aborted")
		return nil, err
	}

	merged := NewCatalog(0)
	for idx, catalog := range catalogs {
		i.logger.Debug().
			Str("file", filePaths[idx]).
			Int("size", catalog.Size()).
			Msg("coupon file merged")
		merged.Merge(catalog)
	}

	return merged, nil
}

// Import loads filePaths and upserts the merged coupons. It returns the
// number of coupons written.
func (i *Importer) Import(ctx context.Context, filePaths []string) (int, error) {
	if len(filePaths) == 0 {
		i.logger.Debug().Msg("no coupon files configured")
		return 0, nil
	}

	catalog, err := i.Load(ctx, filePaths)
	if err != nil {
		return 0, err
	}

	if err := i.store.Upsert(ctx, catalog.Coupons()); err != nil {
		i.logger.Error().Err(err).Msg("failed to store imported coupons")
		return 0, fmt.Errorf("failed to store coupons: %w", err)
	}

	i.logger.Info().
		Int("file_count", len(filePaths)).
		Int("coupon_count", catalog.Size()).
		Msg("coupons imported")

	return catalog.Size(), nil
}
