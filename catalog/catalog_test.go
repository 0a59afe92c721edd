package catalog

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func testRecords() []*Record {
	return []*Record{
		{
			ID:          "GC001",
			Domain:      "climate",
			Type:        "precipitation",
			Release:     "v2",
			Cadence:     Yearly,
			URLTemplate: "https://ex/data_{year}.tif",
			MinYear:     2000,
			MaxYear:     2005,
			ScaleValue:  0.1,
			CRS:         "EPSG:3577",
		},
		{
			ID:          "GC002",
			Domain:      "climate",
			Type:        "temperature",
			Release:     "v2",
			Cadence:     Daily,
			URLTemplate: "https://ex/{year}/data_{day}.tif",
			MinDate:     "2020-01-01",
			MaxDate:     "2020-12-31",
			CRS:         "EPSG:3577",
		},
		{
			ID:          "GC003",
			Domain:      "terrain",
			Type:        "elevation",
			Release:     "v1",
			Cadence:     Single,
			URLTemplate: "https://ex/dem.tif",
			CRS:         "EPSG:3577",
			Deprecated:  true,
		},
	}
}

func TestTableLookupAndQuery(t *testing.T) {
	table, err := NewTable(testRecords())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	ctx := context.Background()

	rec, err := table.Lookup(ctx, "GC002")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Cadence != Daily {
		t.Errorf("GC002 cadence = %v, want daily", rec.Cadence)
	}

	if _, err := table.Lookup(ctx, "nope"); err == nil {
		t.Errorf("Lookup of unknown id did not fail")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("err = %v, want NotFoundError", err)
	}

	recs, err := table.Query(ctx, Filter{Domain: "climate"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("climate query returned %d records, want 2", len(recs))
	}

	// Deprecated records are excluded unless asked for.
	recs, _ = table.Query(ctx, Filter{Domain: "terrain"})
	if len(recs) != 0 {
		t.Errorf("deprecated record returned without IncludeDeprecated")
	}
	recs, _ = table.Query(ctx, Filter{Domain: "terrain", IncludeDeprecated: true})
	if len(recs) != 1 {
		t.Errorf("terrain query with IncludeDeprecated returned %d records, want 1", len(recs))
	}

	cadence := Yearly
	recs, _ = table.Query(ctx, Filter{Cadence: &cadence})
	if len(recs) != 1 || recs[0].ID != "GC001" {
		t.Errorf("yearly query returned %v", recs)
	}
}

func TestRecordValidate(t *testing.T) {
	bad := []*Record{
		{ID: "B1", Cadence: Yearly, URLTemplate: "x"},
		{ID: "B2", Cadence: Yearly, URLTemplate: "x", MinYear: 2010, MaxYear: 2000},
		{ID: "B3", Cadence: Daily, URLTemplate: "x"},
		{ID: "B4", Cadence: Daily, URLTemplate: "x", MinDate: "2020-01-01", MaxDate: "2019-01-01"},
		{ID: "B5", Cadence: Daily, URLTemplate: "x", MinDate: "bad", MaxDate: "2020-01-01"},
		{ID: "B6", Cadence: Single, URLTemplate: "x", MinYear: 2000, MaxYear: 2001},
		{ID: "B7", Cadence: Yearly, URLTemplate: "x", MinYear: 2000, MaxYear: 2005, MinDate: "2020-01-01", MaxDate: "2020-02-01"},
		{ID: "B8", Cadence: Yearly},
	}
	for _, rec := range bad {
		if err := rec.Validate(); err == nil {
			t.Errorf("%s: invalid record passed validation", rec.ID)
		}
	}

	for _, rec := range testRecords() {
		if err := rec.Validate(); err != nil {
			t.Errorf("%s: %v", rec.ID, err)
		}
	}
}

const jsonCatalog = `{
  "records": [
    {
      "id": "GC010",
      "domain": "climate",
      "cadence": "yearly",
      "url_template": "https://ex/data_{year}.tif",
      "min_year": 1990,
      "max_year": 1999,
      "scale_value": 0.01,
      "crs": "EPSG:3577"
    }
  ]
}`

const yamlCatalog = `records:
  - id: GC011
    domain: climate
    cadence: daily
    url_template: "https://ex/{year}/data_{day}.tif"
    min_date: "2010-01-01"
    max_date: "2010-12-31"
    crs: "EPSG:3577"
`

func TestLoadDir(t *testing.T) {
	root := t.TempDir()

	subA := filepath.Join(root, "climate", "a")
	subB := filepath.Join(root, "climate", "b")
	for _, dir := range []string{subA, subB} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	if err := ioutil.WriteFile(filepath.Join(subA, "catalog.json"), []byte(jsonCatalog), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := ioutil.WriteFile(filepath.Join(subB, "catalog.yaml"), []byte(yamlCatalog), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	table, err := LoadDir(root, false)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("loaded %d records, want 2", table.Len())
	}

	ctx := context.Background()
	rec, err := table.Lookup(ctx, "GC010")
	if err != nil {
		t.Fatalf("Lookup GC010: %v", err)
	}
	if rec.Cadence != Yearly || rec.MaxYear != 1999 || rec.ScaleValue != 0.01 {
		t.Errorf("GC010 loaded wrong: %+v", rec)
	}

	rec, err = table.Lookup(ctx, "GC011")
	if err != nil {
		t.Fatalf("Lookup GC011: %v", err)
	}
	if rec.Cadence != Daily || rec.MinDate != "2010-01-01" {
		t.Errorf("GC011 loaded wrong: %+v", rec)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir(), false); err == nil {
		t.Errorf("empty catalog dir did not fail")
	}
}
