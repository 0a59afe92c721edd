// Package raster assembles ordered locator lists into one logical
// multi-layer raster handle backed by an external raster provider.
package raster

import (
	"context"
	"fmt"
	"strings"
)

// Interpolation modes accepted by SampleRequest.
const (
	InterpNearest  = "nearest"
	InterpBilinear = "bilinear"
)

// Provider summary functions accepted by SampleRequest. An empty
// summary requests the full bag of intersected cell values.
const (
	ProviderSummaryNone = ""
	ProviderSummaryMean = "mean"
	ProviderSummaryMin  = "min"
	ProviderSummaryMax  = "max"
	ProviderSummarySum  = "sum"
)

// OpenOptions carry the metadata assignments applied when opening
// a locator list.
type OpenOptions struct {
	CRS    string
	Scale  float64
	Offset float64
	// Descriptor is an optional mosaic descriptor document handed
	// to the provider alongside the locator list.
	Descriptor string
	// NoData is the fill value of cells outside the stored extent.
	NoData float64
}

// SampleRequest asks the provider to sample every listed layer at a
// set of geometries in one call.
type SampleRequest struct {
	// Geometries are WKT encoded and expressed in GeometryCRS,
	// which must equal the dataset's CRS.
	Geometries  []string
	GeometryCRS string
	// Layers are the zero-based indexes of the retained layers.
	Layers []int
	// Interp applies to point sampling only.
	Interp string
	// Summary is one of the ProviderSummary constants. When empty
	// the provider returns one CellSample per intersected cell.
	Summary string
	// Coverage requests per-cell coverage fractions. Only
	// meaningful for areal geometries with no summary.
	Coverage bool
}

// CellSample is the values of one raster cell (or one summarised
// pseudo-cell) across the requested layers, in request layer order.
type CellSample struct {
	// Cell is the provider's cell index, or -1 for a summarised
	// sample.
	Cell int
	// Coverage is the fraction of the cell covered by the
	// geometry, in (0, 1]. Zero when not requested.
	Coverage float64
	Values   []float64
}

// FeatureSamples are the samples of one input geometry.
type FeatureSamples struct {
	Feature int
	Cells   []CellSample
}

// Dataset is an opened multi-layer raster owned by the external
// provider. Implementations are expected to preserve locator order
// as layer order; the assembler assigns labels on that assumption
// and does not independently verify it.
type Dataset interface {
	LayerCount() int
	SetLayerNames(names []string) error
	SetCRS(crs string) error
	SetTransform(scale, offset float64) error
	Crop(minX, minY, maxX, maxY float64) error
	Sample(ctx context.Context, req SampleRequest) ([]FeatureSamples, error)
	Close() error
}

// Provider opens raster datasets by locator list. Remote locators
// are opened lazily: metadata eagerly, pixel data on demand.
type Provider interface {
	Open(ctx context.Context, locators []string, opts OpenOptions) (Dataset, error)
}

// BackendOpenError reports that the provider could not open one or
// more locators.
type BackendOpenError struct {
	Locators []string
	Err      error
}

func (e *BackendOpenError) Error() string {
	return fmt.Sprintf("Raster provider could not open %s: %v", strings.Join(e.Locators, ", "), e.Err)
}

func (e *BackendOpenError) Unwrap() error {
	return e.Err
}

// DownloadIncompleteError reports that local materialization failed
// for one or more locators. Partial handles are never constructed.
type DownloadIncompleteError struct {
	Failed []string
}

func (e *DownloadIncompleteError) Error() string {
	return fmt.Sprintf("Download incomplete for %d file(s): %s", len(e.Failed), strings.Join(e.Failed, ", "))
}
