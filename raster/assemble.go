package raster

import (
	"context"
	"fmt"

	"github.com/geoflux/gridcat/download"
)

// Handle is an assembled multi-layer raster. It is immutable once
// assembled and owned by the goroutine or process that assembled
// it; deferred-fetch connection state does not transfer across
// process boundaries.
type Handle struct {
	ds       Dataset
	labels   []string
	locators []string
	crs      string
	scale    float64
	offset   float64
}

func (h *Handle) Dataset() Dataset {
	return h.ds
}

// Labels returns the layer labels in layer order. Layer order is
// the authoritative layer-to-label mapping.
func (h *Handle) Labels() []string {
	out := make([]string, len(h.labels))
	copy(out, h.labels)
	return out
}

func (h *Handle) Locators() []string {
	out := make([]string, len(h.locators))
	copy(out, h.locators)
	return out
}

func (h *Handle) CRS() string {
	return h.crs
}

func (h *Handle) Transform() (float64, float64) {
	return h.scale, h.offset
}

// LayerIndex returns the layer index of a label, or -1.
func (h *Handle) LayerIndex(label string) int {
	for i, l := range h.labels {
		if l == label {
			return i
		}
	}
	return -1
}

func (h *Handle) Close() error {
	return h.ds.Close()
}

// AssembleOptions select between direct remote access and local
// materialization.
type AssembleOptions struct {
	// LocalDir, when set, materializes every locator into the
	// directory before opening. Any failed transfer aborts the
	// whole assembly.
	LocalDir string
	Download download.Options
	// Descriptor overrides the default mosaic descriptor handed to
	// the provider.
	Descriptor string
	NoData     float64
}

// Assemble opens an ordered locator list as one logical multi-layer
// raster and assigns labels, CRS and the linear scale/offset
// transform. The transform is a metadata assignment; cell values
// are not rewritten.
func Assemble(ctx context.Context, prov Provider, dl download.Service,
	locators []string, labels []string, crs string, scale, offset float64,
	opts AssembleOptions) (*Handle, error) {

	if len(locators) == 0 {
		return nil, fmt.Errorf("Cannot assemble a handle from zero locators")
	}
	if len(locators) != len(labels) {
		return nil, fmt.Errorf("Locator/label length mismatch: %d vs %d", len(locators), len(labels))
	}

	openList := locators
	if len(opts.LocalDir) > 0 {
		if dl == nil {
			return nil, fmt.Errorf("Local materialization requested but no download service configured")
		}
		results, err := dl.Download(ctx, locators, opts.LocalDir, opts.Download)
		if err != nil {
			return nil, err
		}

		var failed []string
		localPaths := make([]string, len(results))
		for i, res := range results {
			if !res.OK {
				failed = append(failed, res.Locator)
				continue
			}
			localPaths[i] = res.LocalPath
		}
		if len(failed) > 0 {
			return nil, &DownloadIncompleteError{Failed: failed}
		}
		openList = localPaths
	}

	descriptor := opts.Descriptor
	if len(descriptor) == 0 {
		var err error
		descriptor, err = BuildDescriptor(openList, labels, crs, scale, offset, opts.NoData)
		if err != nil {
			return nil, err
		}
	}

	ds, err := prov.Open(ctx, openList, OpenOptions{
		CRS:        crs,
		Scale:      scale,
		Offset:     offset,
		Descriptor: descriptor,
		NoData:     opts.NoData,
	})
	if err != nil {
		return nil, &BackendOpenError{Locators: openList, Err: err}
	}

	// The provider preserves file order as layer order; label[i] is
	// taken to correspond to the i-th opened layer.
	if err := ds.SetLayerNames(labels); err != nil {
		ds.Close()
		return nil, &BackendOpenError{Locators: openList, Err: err}
	}
	if len(crs) > 0 {
		if err := ds.SetCRS(crs); err != nil {
			ds.Close()
			return nil, &BackendOpenError{Locators: openList, Err: err}
		}
	}
	if err := ds.SetTransform(scale, offset); err != nil {
		ds.Close()
		return nil, &BackendOpenError{Locators: openList, Err: err}
	}

	return &Handle{
		ds:       ds,
		labels:   append([]string(nil), labels...),
		locators: append([]string(nil), openList...),
		crs:      crs,
		scale:    scale,
		offset:   offset,
	}, nil
}
