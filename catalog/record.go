package catalog

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the string used to format catalog date bounds.
const DateFormat = "2006-01-02"

// Cadence is the temporal granularity of a dataset.
type Cadence int

const (
	Single Cadence = iota
	Yearly
	Monthly
	Daily
)

var cadenceNames = map[Cadence]string{
	Single:  "single",
	Yearly:  "yearly",
	Monthly: "monthly",
	Daily:   "daily",
}

func (c Cadence) String() string {
	if name, found := cadenceNames[c]; found {
		return name
	}
	return fmt.Sprintf("cadence(%d)", int(c))
}

func ParseCadence(name string) (Cadence, error) {
	for c, n := range cadenceNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return Single, fmt.Errorf("Unknown cadence: %s", name)
}

func (c *Cadence) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	cadence, err := ParseCadence(name)
	if err != nil {
		return err
	}
	*c = cadence
	return nil
}

func (c Cadence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *Cadence) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	cadence, err := ParseCadence(name)
	if err != nil {
		return err
	}
	*c = cadence
	return nil
}

// Record contains all the details needed to resolve a dataset
// to concrete resource locators and open it.
type Record struct {
	ID          string `json:"id" yaml:"id"`
	Domain      string `json:"domain" yaml:"domain"`
	Type        string `json:"type" yaml:"type"`
	Release     string `json:"release" yaml:"release"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Units       string `json:"units" yaml:"units"`

	Cadence     Cadence `json:"cadence" yaml:"cadence"`
	URLTemplate string  `json:"url_template" yaml:"url_template"`
	MinYear     int     `json:"min_year" yaml:"min_year"`
	MaxYear     int     `json:"max_year" yaml:"max_year"`
	MinDate     string  `json:"min_date" yaml:"min_date"`
	MaxDate     string  `json:"max_date" yaml:"max_date"`

	ScaleValue  float64 `json:"scale_value" yaml:"scale_value"`
	OffsetValue float64 `json:"offset_value" yaml:"offset_value"`
	NoData      float64 `json:"nodata" yaml:"nodata"`
	CRS         string  `json:"crs" yaml:"crs"`

	Deprecated bool `json:"deprecated" yaml:"deprecated"`

	// DescriptorTemplate optionally names a mosaic descriptor
	// template rendered at assembly time.
	DescriptorTemplate string `json:"descriptor_template" yaml:"descriptor_template"`
}

// DateBounds parses the record's date bounds. Only valid for
// monthly and daily cadences.
func (r *Record) DateBounds() (time.Time, time.Time, error) {
	start, err := time.Parse(DateFormat, r.MinDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("Record %s: bad min_date %q: %v", r.ID, r.MinDate, err)
	}
	end, err := time.Parse(DateFormat, r.MaxDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("Record %s: bad max_date %q: %v", r.ID, r.MaxDate, err)
	}
	return start, end, nil
}

// Validate checks the per-cadence bounds invariant: yearly records
// carry year bounds, monthly and daily records carry date bounds,
// single records carry neither.
func (r *Record) Validate() error {
	if len(strings.TrimSpace(r.ID)) == 0 {
		return fmt.Errorf("Record with empty id")
	}
	if len(strings.TrimSpace(r.URLTemplate)) == 0 {
		return fmt.Errorf("Record %s: empty url_template", r.ID)
	}

	hasYears := r.MinYear != 0 || r.MaxYear != 0
	hasDates := len(r.MinDate) > 0 || len(r.MaxDate) > 0

	switch r.Cadence {
	case Single:
		if hasYears || hasDates {
			return fmt.Errorf("Record %s: single cadence must not carry temporal bounds", r.ID)
		}
	case Yearly:
		if hasDates {
			return fmt.Errorf("Record %s: yearly cadence carries date bounds", r.ID)
		}
		if !hasYears || r.MinYear > r.MaxYear {
			return fmt.Errorf("Record %s: invalid year bounds [%d, %d]", r.ID, r.MinYear, r.MaxYear)
		}
	case Monthly, Daily:
		if hasYears {
			return fmt.Errorf("Record %s: %v cadence carries year bounds", r.ID, r.Cadence)
		}
		if !hasDates {
			return fmt.Errorf("Record %s: %v cadence requires date bounds", r.ID, r.Cadence)
		}
		start, end, err := r.DateBounds()
		if err != nil {
			return err
		}
		if start.After(end) {
			return fmt.Errorf("Record %s: min_date %s after max_date %s", r.ID, r.MinDate, r.MaxDate)
		}
	default:
		return fmt.Errorf("Record %s: unknown cadence", r.ID)
	}
	return nil
}
