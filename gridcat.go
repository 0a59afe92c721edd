// Package gridcat is a discovery-and-access layer for a curated
// catalog of cloud-hosted raster time-series datasets. It resolves
// catalog entries to ordered resource locators, assembles them into
// one logical multi-layer raster handle and extracts per-feature
// values from the handle at vector geometries.
//
// All collaborators (catalog source, raster provider, vector
// provider, download service) are injected; the package keeps no
// global state and no cache of its own.
package gridcat

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/geoflux/gridcat/catalog"
	"github.com/geoflux/gridcat/download"
	"github.com/geoflux/gridcat/extract"
	"github.com/geoflux/gridcat/metrics"
	"github.com/geoflux/gridcat/raster"
	"github.com/geoflux/gridcat/resolver"
)

// Source identifies the dataset to open: either a catalog entry or
// a direct locator. Exactly one must be set.
type Source struct {
	catalogID string
	url       string
}

func ByCatalogID(id string) Source {
	return Source{catalogID: id}
}

func ByURL(url string) Source {
	return Source{url: url}
}

func (s Source) validate() error {
	if len(s.catalogID) > 0 && len(s.url) > 0 {
		return &resolver.UsageError{Msg: "Catalog identifier and direct locator are mutually exclusive"}
	}
	if len(s.catalogID) == 0 && len(s.url) == 0 {
		return &resolver.UsageError{Msg: "A catalog identifier or a direct locator is required"}
	}
	return nil
}

// Service wires the pipeline's collaborators together.
type Service struct {
	Catalog    catalog.Source
	Provider   raster.Provider
	Vector     extract.VectorProvider
	Downloader download.Service

	MetricsLogger metrics.Logger
	InfoLog       *log.Logger
	ErrorLog      *log.Logger
	Verbose       bool
}

// NewService returns a Service with default loggers. Collaborators
// left nil disable the features that need them.
func NewService(cat catalog.Source, prov raster.Provider) *Service {
	return &Service{
		Catalog:  cat,
		Provider: prov,
		InfoLog:  log.New(os.Stdout, "", log.LstdFlags),
		ErrorLog: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// GetOptions control one GetRaster call.
type GetOptions struct {
	Selection resolver.Selection
	// LocalDir enables local materialization before opening.
	LocalDir string
	Download download.Options
}

// GetResult is an assembled handle plus the labels actually used
// and any advisory notices accumulated along the pipeline.
type GetResult struct {
	Handle  *raster.Handle
	Labels  []string
	Notices []string
}

// GetRaster resolves a source to an ordered locator list and
// assembles it into one multi-layer raster handle. No pixel data is
// transferred unless local materialization is requested.
func (s *Service) GetRaster(ctx context.Context, src Source, opts GetOptions) (*GetResult, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if s.Provider == nil {
		return nil, fmt.Errorf("No raster provider configured")
	}

	collector := metrics.NewCollector(s.MetricsLogger)
	t0 := time.Now()
	defer func() {
		collector.Info.ReqDuration = time.Since(t0)
		collector.Log()
	}()

	if len(src.url) > 0 {
		return s.getDirect(ctx, src.url, opts, collector)
	}
	return s.getFromCatalog(ctx, src.catalogID, opts, collector)
}

func (s *Service) getDirect(ctx context.Context, url string, opts GetOptions, collector *metrics.Collector) (*GetResult, error) {
	if !opts.Selection.IsEmpty() {
		return nil, &resolver.UsageError{Msg: "Temporal selection requires a catalog entry; direct locators have no temporal metadata"}
	}

	labels := []string{url}
	handle, err := s.assemble(ctx, nil, []string{url}, labels, opts, collector)
	if err != nil {
		return nil, err
	}
	return &GetResult{Handle: handle, Labels: labels}, nil
}

func (s *Service) getFromCatalog(ctx context.Context, id string, opts GetOptions, collector *metrics.Collector) (*GetResult, error) {
	if s.Catalog == nil {
		return nil, fmt.Errorf("No catalog source configured")
	}

	rec, err := s.Catalog.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	var notices []string
	if rec.Deprecated {
		notices = append(notices, fmt.Sprintf("Dataset %s is deprecated", rec.ID))
	}

	tRes := time.Now()
	resolution, err := resolver.Resolve(rec, opts.Selection)
	collector.Info.Resolver.Dataset = rec.ID
	collector.Info.Resolver.Cadence = rec.Cadence.String()
	collector.Info.Resolver.Duration = time.Since(tRes)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues(rec.Cadence.String(), "error").Inc()
		return nil, err
	}
	metrics.ResolutionsTotal.WithLabelValues(rec.Cadence.String(), "ok").Inc()
	collector.Info.Resolver.NumMatched = len(resolution.Labels)
	collector.Info.Resolver.NumUnmatched = len(resolution.Unmatched)
	collector.Info.Resolver.NumRequested = len(resolution.Labels) + len(resolution.Unmatched)
	notices = append(notices, resolution.Notices...)

	locators, err := resolver.Expand(rec.Cadence, rec.URLTemplate, resolution.Labels)
	if err != nil {
		return nil, err
	}
	if s.Verbose {
		s.InfoLog.Printf("gridcat: %s resolved to %d locators", rec.ID, len(locators))
	}

	handle, err := s.assemble(ctx, rec, locators, resolution.Labels, opts, collector)
	if err != nil {
		return nil, err
	}
	return &GetResult{Handle: handle, Labels: resolution.Labels, Notices: notices}, nil
}

func (s *Service) assemble(ctx context.Context, rec *catalog.Record,
	locators []string, labels []string, opts GetOptions, collector *metrics.Collector) (*raster.Handle, error) {

	crs := ""
	scale, offset, noData := 1.0, 0.0, 0.0
	descriptor := ""
	if rec != nil {
		crs = rec.CRS
		if rec.ScaleValue != 0 {
			scale = rec.ScaleValue
		}
		offset = rec.OffsetValue
		noData = rec.NoData

		if len(rec.DescriptorTemplate) > 0 {
			var err error
			descriptor, err = raster.RenderDescriptorTemplate(rec.DescriptorTemplate, &raster.DescriptorData{
				Locators: locators,
				Labels:   labels,
				CRS:      crs,
				Scale:    scale,
				Offset:   offset,
				NoData:   noData,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	mode := "remote"
	if len(opts.LocalDir) > 0 {
		mode = "local"
	}

	tAsm := time.Now()
	handle, err := raster.Assemble(ctx, s.Provider, s.Downloader, locators, labels, crs, scale, offset,
		raster.AssembleOptions{
			LocalDir:   opts.LocalDir,
			Download:   opts.Download,
			Descriptor: descriptor,
			NoData:     noData,
		})
	collector.Info.Assembler.NumLocators = len(locators)
	collector.Info.Assembler.Mode = mode
	collector.Info.Assembler.Duration = time.Since(tAsm)
	if err != nil {
		metrics.AssembliesTotal.WithLabelValues(mode, "error").Inc()
		if s.ErrorLog != nil {
			s.ErrorLog.Printf("gridcat: assembly failed: %v", err)
		}
		return nil, err
	}
	metrics.AssembliesTotal.WithLabelValues(mode, "ok").Inc()
	return handle, nil
}

// Extract samples an assembled handle at a feature set under an
// extraction policy.
func (s *Service) Extract(ctx context.Context, h *raster.Handle, fs *extract.FeatureSet, pol extract.Policy) (*extract.Result, error) {
	collector := metrics.NewCollector(s.MetricsLogger)
	engine := &extract.Engine{Vector: s.Vector, Verbose: s.Verbose}

	kind := "unknown"
	if k, err := fs.Kind(); err == nil {
		kind = k.String()
	}

	t0 := time.Now()
	res, err := engine.Extract(ctx, h, fs, pol)
	elapsed := time.Since(t0)

	collector.Info.Extract.GeometryKind = kind
	collector.Info.Extract.NumFeatures = fs.Len()
	collector.Info.Extract.NumLayers = len(h.Labels())
	collector.Info.Extract.Duration = elapsed
	collector.Info.ReqDuration = elapsed
	metrics.ExtractionLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(kind, "error").Inc()
		collector.Log()
		return nil, err
	}
	metrics.ExtractionsTotal.WithLabelValues(kind, "ok").Inc()
	collector.Info.Extract.NumRows = len(res.Rows)
	collector.Log()
	return res, nil
}
