package lancong

import (
	"context"
	"fmt"

	"github.com/soundprediction/lancong/pkg/driver"
	"github.com/soundprediction/lancong/pkg/types"
)

// ErrNotFound is returned when a place or package id does not exist.
var ErrNotFound = types.ErrNotFound

// GetPlace returns the place summary for id.
func (c *Client) GetPlace(ctx context.Context, id int64) (*types.Place, error) {
	return c.readPlace(ctx, driver.GetPlaceQuery, id)
}

// GetInfobox returns the detailed place for id with its enrichment. The
// enrichment is all-null when the knowledge base has no match.
func (c *Client) GetInfobox(ctx context.Context, id int64) (*types.Place, error) {
	place, err := c.readPlace(ctx, driver.GetInfoboxQuery, id)
	if err != nil {
		return nil, err
	}
	if c.enricher == nil {
		place.Enrichment = types.EmptyEnrichment()
		return place, nil
	}
	enriched := c.enricher.EnrichPlace(ctx, *place)
	return &enriched, nil
}

func (c *Client) readPlace(ctx context.Context, query string, id int64) (*types.Place, error) {
	rows, err := c.driver.ExecuteQuery(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get place %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	props, ok := driver.AsMap(rows[0]["place"])
	if !ok {
		return nil, ErrNotFound
	}
	place, ok := types.PlaceFromMap(props)
	if !ok {
		return nil, fmt.Errorf("place %d: %w", id, driver.NewTypeConversionError("map with id", fmt.Sprintf("%T", rows[0]["place"]), "place"))
	}
	return &place, nil
}

// GetPackage returns the package for id with its places.
func (c *Client) GetPackage(ctx context.Context, id int64) (*types.Package, error) {
	rows, err := c.driver.ExecuteQuery(ctx, driver.GetPackageQuery, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get package %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	props, ok := driver.AsMap(rows[0]["package"])
	if !ok {
		return nil, ErrNotFound
	}
	pkg, ok := types.PackageFromMap(props)
	if !ok {
		return nil, ErrNotFound
	}
	if pkg.Places == nil {
		pkg.Places = []types.Place{}
	}
	return &pkg, nil
}

// ListPackages returns up to limit package summaries. limit 0 selects the
// configured default.
func (c *Client) ListPackages(ctx context.Context, limit int) ([]types.Package, error) {
	if limit == 0 {
		limit = c.config.PackageLimit
	}
	if limit < 0 {
		return nil, types.NewValidationError("limit", "must be positive, got %d", limit)
	}

	rows, err := c.driver.ExecuteQuery(ctx, driver.ListPackagesQuery, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	packages := make([]types.Package, 0, len(rows))
	for _, row := range rows {
		props, ok := driver.AsMap(row["package"])
		if !ok {
			continue
		}
		if pkg, ok := types.PackageFromMap(props); ok {
			packages = append(packages, pkg)
		}
	}
	return packages, nil
}
