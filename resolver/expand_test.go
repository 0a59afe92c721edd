package resolver

import (
	"testing"

	"github.com/geoflux/gridcat/catalog"
)

func TestExpandYearly(t *testing.T) {
	locators, err := Expand(catalog.Yearly, "https://ex/data_{year}.tif", []string{"2003", "2004"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"https://ex/data_2003.tif", "https://ex/data_2004.tif"}
	checkLabels(t, locators, want)
}

func TestExpandDailyDayOfYear(t *testing.T) {
	labels := []string{"2021-02-28", "2021-03-01", "2021-03-02"}
	locators, err := Expand(catalog.Daily, "https://ex/{year}/data_{day}.tif", labels)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{
		"https://ex/2021/data_059.tif",
		"https://ex/2021/data_060.tif",
		"https://ex/2021/data_061.tif",
	}
	checkLabels(t, locators, want)
}

func TestExpandRepeatedTokens(t *testing.T) {
	locators, err := Expand(catalog.Yearly, "https://ex/{year}/data_{year}.tif", []string{"2003"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if locators[0] != "https://ex/2003/data_2003.tif" {
		t.Errorf("got %s", locators[0])
	}
}

func TestExpandIdempotent(t *testing.T) {
	labels := []string{"2020-01", "2020-02", "2020-03"}
	template := "https://ex/{year}/{month}/data_{month}.tif"

	first, err := Expand(catalog.Monthly, template, labels)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	second, err := Expand(catalog.Monthly, template, labels)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	checkLabels(t, second, first)
}

func TestExpandMonthly(t *testing.T) {
	locators, err := Expand(catalog.Monthly, "https://ex/{year}/{month}/data.tif", []string{"2020-11", "2021-02"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"https://ex/2020/11/data.tif", "https://ex/2021/02/data.tif"}
	checkLabels(t, locators, want)
}

func TestExpandInvalidTemplate(t *testing.T) {
	cases := []struct {
		cadence  catalog.Cadence
		template string
	}{
		{catalog.Yearly, "https://ex/data.tif"},
		{catalog.Daily, "https://ex/data_{year}.tif"},
		{catalog.Daily, "https://ex/data_{day}.tif"},
		{catalog.Monthly, "https://ex/data_{year}.tif"},
	}

	for _, c := range cases {
		if _, err := Expand(c.cadence, c.template, []string{"2020-01-02"}); err == nil {
			t.Errorf("%v template %q: did not fail", c.cadence, c.template)
		} else if _, ok := err.(*InvalidTemplateError); !ok {
			t.Errorf("%v template %q: err = %v, want InvalidTemplateError", c.cadence, c.template, err)
		}
	}
}

func TestExpandSingle(t *testing.T) {
	locators, err := Expand(catalog.Single, "https://ex/static.tif", []string{"GC005"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(locators) != 1 || locators[0] != "https://ex/static.tif" {
		t.Errorf("got %v", locators)
	}
}
