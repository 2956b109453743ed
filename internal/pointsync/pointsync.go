// Package pointsync copies a material's default points onto every approved
// recycling center.
package pointsync

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/store"
)

// DefaultMultiplier is written to every synced config.
const DefaultMultiplier = 1.0

type Syncer struct {
	materials   *store.MaterialStore
	centers     *store.CenterStore
	concurrency int
	logger      *slog.Logger
}

func NewSyncer(db *sql.DB, concurrency int, logger *slog.Logger) *Syncer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Syncer{
		materials:   store.NewMaterialStore(db),
		centers:     store.NewCenterStore(db),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Result lists the configs written for one material, in center id order.
type Result struct {
	MaterialID int64                       `json:"material_id"`
	Configs    []model.MaterialPointConfig `json:"configs"`
}

// SyncMaterial overwrites the (center, material) config of every approved
// center with the material's default points, enabled, and multiplier 1.0.
// Existing customizations are replaced. Each row is written on its own, so
// a failure part way leaves earlier rows written.
func (s *Syncer) SyncMaterial(ctx context.Context, materialID int64) (Result, error) {
	m, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		return Result{}, err
	}
	if m == nil {
		return Result{}, apperr.NotFound("material", materialID)
	}

	centers, err := s.centers.ListByStatus(ctx, model.CenterApproved)
	if err != nil {
		return Result{}, err
	}

	configs := make([]model.MaterialPointConfig, len(centers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range centers {
		g.Go(func() error {
			cfg, err := s.materials.UpsertPointConfig(gctx, c.ID, m.ID, m.DefaultPoints, true, DefaultMultiplier)
			if err != nil {
				return fmt.Errorf("center %d: %w", c.ID, err)
			}
			configs[i] = *cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("sync material %d: %w", m.ID, err)
	}

	s.logger.Info("points synced", "material_id", m.ID, "material", m.Name, "centers", len(centers), "points", m.DefaultPoints)
	return Result{MaterialID: m.ID, Configs: configs}, nil
}

// SyncAll runs SyncMaterial for every active material, stopping at the
// first failure.
func (s *Syncer) SyncAll(ctx context.Context) ([]Result, error) {
	materials, err := s.materials.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(materials))
	for _, m := range materials {
		res, err := s.SyncMaterial(ctx, m.ID)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
