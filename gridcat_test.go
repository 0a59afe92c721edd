package gridcat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	geo "github.com/nci/geometry"

	"github.com/geoflux/gridcat/catalog"
	"github.com/geoflux/gridcat/download"
	"github.com/geoflux/gridcat/extract"
	"github.com/geoflux/gridcat/metrics"
	"github.com/geoflux/gridcat/raster"
	"github.com/geoflux/gridcat/resolver"
)

type memDataset struct {
	locators []string
	samples  []raster.FeatureSamples
}

func (d *memDataset) LayerCount() int                          { return len(d.locators) }
func (d *memDataset) SetLayerNames(names []string) error       { return nil }
func (d *memDataset) SetCRS(crs string) error                  { return nil }
func (d *memDataset) SetTransform(scale, offset float64) error { return nil }
func (d *memDataset) Crop(a, b, c, e float64) error            { return nil }
func (d *memDataset) Close() error                             { return nil }

func (d *memDataset) Sample(ctx context.Context, req raster.SampleRequest) ([]raster.FeatureSamples, error) {
	return d.samples, nil
}

type memProvider struct {
	opened [][]string
}

func (p *memProvider) Open(ctx context.Context, locators []string, opts raster.OpenOptions) (raster.Dataset, error) {
	p.opened = append(p.opened, locators)
	return &memDataset{locators: locators}, nil
}

type memDownloader struct {
	fail map[string]bool
}

func (d *memDownloader) Download(ctx context.Context, locators []string, destDir string, opts download.Options) ([]download.Result, error) {
	results := make([]download.Result, len(locators))
	for i, locator := range locators {
		results[i] = download.Result{
			Locator:   locator,
			LocalPath: destDir + "/" + locator[strings.LastIndex(locator, "/")+1:],
			OK:        !d.fail[locator],
		}
	}
	return results, nil
}

func testService(t *testing.T) (*Service, *memProvider) {
	t.Helper()
	table, err := catalog.NewTable([]*catalog.Record{
		{
			ID:          "GC001",
			Domain:      "climate",
			Cadence:     catalog.Yearly,
			URLTemplate: "https://ex/data_{year}.tif",
			MinYear:     2000,
			MaxYear:     2005,
			ScaleValue:  0.1,
			CRS:         "EPSG:3577",
		},
		{
			ID:          "GC003",
			Domain:      "terrain",
			Cadence:     catalog.Single,
			URLTemplate: "https://ex/dem.tif",
			CRS:         "EPSG:3577",
			Deprecated:  true,
		},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	prov := &memProvider{}
	return NewService(table, prov), prov
}

func TestGetRasterFromCatalog(t *testing.T) {
	svc, prov := testService(t)

	res, err := svc.GetRaster(context.Background(), ByCatalogID("GC001"),
		GetOptions{Selection: resolver.Selection{Years: []int{2003, 2004}}})
	if err != nil {
		t.Fatalf("GetRaster: %v", err)
	}
	defer res.Handle.Close()

	if len(res.Labels) != 2 || res.Labels[0] != "2003" {
		t.Errorf("labels = %v", res.Labels)
	}
	if len(prov.opened) != 1 {
		t.Fatalf("provider opened %d times, want 1", len(prov.opened))
	}
	wantLocators := []string{"https://ex/data_2003.tif", "https://ex/data_2004.tif"}
	for i, want := range wantLocators {
		if prov.opened[0][i] != want {
			t.Errorf("locator[%d] = %s, want %s", i, prov.opened[0][i], want)
		}
	}
	if res.Handle.CRS() != "EPSG:3577" {
		t.Errorf("handle CRS = %s", res.Handle.CRS())
	}
	if scale, _ := res.Handle.Transform(); scale != 0.1 {
		t.Errorf("handle scale = %v, want 0.1", scale)
	}
	if res.Handle.LayerIndex("2004") != 1 {
		t.Errorf("label 2004 maps to layer %d, want 1", res.Handle.LayerIndex("2004"))
	}
}

func TestGetRasterPartialOverlapAdvisory(t *testing.T) {
	svc, _ := testService(t)

	res, err := svc.GetRaster(context.Background(), ByCatalogID("GC001"),
		GetOptions{Selection: resolver.Selection{Years: []int{2004, 2010}}})
	if err != nil {
		t.Fatalf("GetRaster: %v", err)
	}
	defer res.Handle.Close()

	if len(res.Labels) != 1 || res.Labels[0] != "2004" {
		t.Errorf("labels = %v", res.Labels)
	}
	if len(res.Notices) == 0 {
		t.Errorf("partial overlap produced no advisory")
	}
}

func TestGetRasterNoOverlap(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.GetRaster(context.Background(), ByCatalogID("GC001"),
		GetOptions{Selection: resolver.Selection{Years: []int{2050}}})
	if _, ok := err.(*resolver.NoOverlapError); !ok {
		t.Fatalf("err = %v, want NoOverlapError", err)
	}
}

func TestGetRasterDeprecatedNotice(t *testing.T) {
	svc, _ := testService(t)
	res, err := svc.GetRaster(context.Background(), ByCatalogID("GC003"), GetOptions{})
	if err != nil {
		t.Fatalf("GetRaster: %v", err)
	}
	defer res.Handle.Close()

	found := false
	for _, notice := range res.Notices {
		if strings.Contains(notice, "deprecated") {
			found = true
		}
	}
	if !found {
		t.Errorf("no deprecation advisory: %v", res.Notices)
	}
}

func TestGetRasterUnknownID(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.GetRaster(context.Background(), ByCatalogID("nope"), GetOptions{})
	if _, ok := err.(*catalog.NotFoundError); !ok {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestGetRasterDirect(t *testing.T) {
	svc, prov := testService(t)

	res, err := svc.GetRaster(context.Background(), ByURL("https://ex/adhoc.tif"), GetOptions{})
	if err != nil {
		t.Fatalf("GetRaster: %v", err)
	}
	defer res.Handle.Close()

	if len(prov.opened) != 1 || prov.opened[0][0] != "https://ex/adhoc.tif" {
		t.Errorf("opened = %v", prov.opened)
	}
	if len(res.Labels) != 1 {
		t.Errorf("labels = %v", res.Labels)
	}

	// Direct locators carry no temporal metadata to resolve against.
	_, err = svc.GetRaster(context.Background(), ByURL("https://ex/adhoc.tif"),
		GetOptions{Selection: resolver.Selection{Years: []int{2003}}})
	if _, ok := err.(*resolver.UsageError); !ok {
		t.Errorf("err = %v, want UsageError", err)
	}
}

func TestSourceValidation(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.GetRaster(context.Background(), Source{}, GetOptions{}); err == nil {
		t.Errorf("empty source did not fail")
	}
	both := Source{catalogID: "GC001", url: "https://ex/a.tif"}
	if _, err := svc.GetRaster(context.Background(), both, GetOptions{}); err == nil {
		t.Errorf("ambiguous source did not fail")
	}
}

func TestGetRasterLocalMaterialization(t *testing.T) {
	svc, prov := testService(t)
	svc.Downloader = &memDownloader{}

	res, err := svc.GetRaster(context.Background(), ByCatalogID("GC001"), GetOptions{
		Selection: resolver.Selection{Years: []int{2003}},
		LocalDir:  "/tmp/stage",
	})
	if err != nil {
		t.Fatalf("GetRaster: %v", err)
	}
	defer res.Handle.Close()

	if prov.opened[0][0] != "/tmp/stage/data_2003.tif" {
		t.Errorf("provider opened %s, want the local path", prov.opened[0][0])
	}
}

type recordingMetricsLogger struct {
	events []*metrics.Info
}

func (l *recordingMetricsLogger) Log(info *metrics.Info) {
	l.events = append(l.events, info)
}

func TestExtractMetricsEvent(t *testing.T) {
	svc, _ := testService(t)
	logger := &recordingMetricsLogger{}
	svc.MetricsLogger = logger

	res, err := svc.GetRaster(context.Background(), ByCatalogID("GC001"),
		GetOptions{Selection: resolver.Selection{Years: []int{2003}}})
	if err != nil {
		t.Fatalf("GetRaster: %v", err)
	}
	defer res.Handle.Close()

	ds := res.Handle.Dataset().(*memDataset)
	ds.samples = []raster.FeatureSamples{
		{Feature: 0, Cells: []raster.CellSample{{Cell: -1, Values: []float64{1}}}},
	}

	var feat geo.Feature
	doc := `{"type": "Feature", "geometry": {"type": "Point", "coordinates": [148.2, -35.1]}}`
	if err := json.Unmarshal([]byte(doc), &feat); err != nil {
		t.Fatalf("Unmarshal geometry: %v", err)
	}
	fs := &extract.FeatureSet{IDs: []string{"a"}, Features: []geo.Feature{feat}, CRS: "EPSG:3577"}

	if _, err := svc.Extract(context.Background(), res.Handle, fs, extract.Policy{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(logger.events) < 2 {
		t.Fatalf("got %d metrics events, want at least 2", len(logger.events))
	}
	event := logger.events[len(logger.events)-1]
	if event.Extract.NumFeatures != 1 || event.Extract.NumRows != 1 {
		t.Errorf("extract event counts: %+v", event.Extract)
	}
	if event.Extract.Duration == 0 {
		t.Errorf("extract event carries no duration")
	}
	if event.Extract.Duration != event.ReqDuration {
		t.Errorf("extract duration %v differs from request duration %v",
			event.Extract.Duration, event.ReqDuration)
	}
}

func TestGetRasterDownloadIncomplete(t *testing.T) {
	svc, prov := testService(t)
	svc.Downloader = &memDownloader{fail: map[string]bool{"https://ex/data_2004.tif": true}}

	_, err := svc.GetRaster(context.Background(), ByCatalogID("GC001"), GetOptions{
		Selection: resolver.Selection{Years: []int{2003, 2004}},
		LocalDir:  "/tmp/stage",
	})
	if _, ok := err.(*raster.DownloadIncompleteError); !ok {
		t.Fatalf("err = %v, want DownloadIncompleteError", err)
	}
	if len(prov.opened) != 0 {
		t.Errorf("provider opened despite incomplete download")
	}
}
