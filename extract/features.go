// Package extract samples assembled raster handles at vector
// geometries and summarizes the sampled values per feature.
package extract

import (
	"context"
	"fmt"

	geo "github.com/nci/geometry"
)

// GeometryKind classifies a feature set. A set is homogeneous in
// kind per extraction call; mixed kinds are a usage error.
type GeometryKind int

const (
	KindPoints GeometryKind = iota
	KindLines
	KindPolygons
)

func (k GeometryKind) String() string {
	switch k {
	case KindPoints:
		return "points"
	case KindLines:
		return "lines"
	case KindPolygons:
		return "polygons"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FeatureSet is a caller-supplied set of geometries with stable
// feature identifiers and a common coordinate reference system.
type FeatureSet struct {
	IDs      []string
	Features []geo.Feature
	CRS      string
}

func (fs *FeatureSet) Len() int {
	return len(fs.Features)
}

// Kind returns the common geometry kind of the set.
func (fs *FeatureSet) Kind() (GeometryKind, error) {
	if len(fs.Features) == 0 {
		return KindPoints, usageErrorf("Empty feature set")
	}
	if len(fs.IDs) != len(fs.Features) {
		return KindPoints, usageErrorf("Feature set has %d ids for %d features", len(fs.IDs), len(fs.Features))
	}

	kind, err := geometryKind(fs.Features[0].Geometry)
	if err != nil {
		return KindPoints, err
	}
	for _, feat := range fs.Features[1:] {
		k, err := geometryKind(feat.Geometry)
		if err != nil {
			return KindPoints, err
		}
		if k != kind {
			return KindPoints, usageErrorf("Mixed geometry kinds in one feature set: %v and %v", kind, k)
		}
	}
	return kind, nil
}

func geometryKind(geom geo.Geometry) (GeometryKind, error) {
	switch geom.(type) {
	case *geo.Point:
		return KindPoints, nil
	case *geo.LineString:
		return KindLines, nil
	case *geo.Polygon, *geo.MultiPolygon:
		return KindPolygons, nil
	}
	return KindPoints, usageErrorf("Unsupported geometry type %T", geom)
}

// WKT returns the geometries in WKT form, one per feature.
func (fs *FeatureSet) WKT() []string {
	out := make([]string, len(fs.Features))
	for i := range fs.Features {
		out[i] = fs.Features[i].Geometry.MarshalWKT()
	}
	return out
}

// VectorProvider reprojects feature sets. Reprojection is always
// vector to raster CRS: reprojecting raster data is lossy while
// reprojecting vector data is not.
type VectorProvider interface {
	Reproject(ctx context.Context, fs *FeatureSet, dstCRS string) (*FeatureSet, error)
}
