package service

import (
	"context"
	"log"

	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

// CatalogueUnitInput is one unit within a catalogue sync payload.
type CatalogueUnitInput struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

// CatalogueItemInput is one item within a catalogue sync payload.
type CatalogueItemInput struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	PointsCost  int                  `json:"points_cost"`
	Units       []CatalogueUnitInput `json:"units"`
}

// CatalogueService serves the thin catalogue read path and the admin sync
// that provisions units. Sync is idempotent on item and unit identifiers and
// never touches reservation fields.
type CatalogueService struct {
	units repository.UnitRepository
	clk   clock.Clock
}

// NewCatalogueService creates a new catalogue service.
func NewCatalogueService(units repository.UnitRepository, clk clock.Clock) *CatalogueService {
	return &CatalogueService{units: units, clk: clk}
}

// List returns all catalogue items.
func (s *CatalogueService) List(ctx context.Context) ([]model.CatalogueItem, error) {
	return s.units.ListCatalogue(ctx)
}

// UnitsForItem returns all units belonging to a catalogue item.
func (s *CatalogueService) UnitsForItem(ctx context.Context, itemID string) ([]model.Unit, error) {
	return s.units.ListUnitsByItem(ctx, itemID)
}

// Sync upserts the given items and their units. Returns the number of items
// and units written.
func (s *CatalogueService) Sync(ctx context.Context, items []CatalogueItemInput) (int, int, error) {
	now := s.clk.Now()
	var itemCount, unitCount int

	for _, in := range items {
		item := model.CatalogueItem{
			ID:          in.ID,
			Name:        in.Name,
			Description: in.Description,
			PointsCost:  in.PointsCost,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.units.UpsertCatalogueItem(ctx, item); err != nil {
			return itemCount, unitCount, err
		}
		itemCount++

		for _, uin := range in.Units {
			unit := model.Unit{
				ID:             uin.ID,
				ItemID:         in.ID,
				Label:          uin.Label,
				TotalStock:     uin.Stock,
				RemainingStock: uin.Stock,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.units.UpsertUnit(ctx, unit); err != nil {
				return itemCount, unitCount, err
			}
			unitCount++
		}
	}

	log.Printf("[CatalogueService] synced %d items, %d units", itemCount, unitCount)
	return itemCount, unitCount, nil
}
