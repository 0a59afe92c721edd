package catalog

import (
	"context"
	"fmt"
)

// NotFoundError is returned when a dataset identifier does not
// exist in the catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Dataset %s not found in catalog", e.ID)
}

// Filter holds the predicates of a catalog query. Zero-valued
// fields match everything.
type Filter struct {
	Domain            string
	Type              string
	Release           string
	Cadence           *Cadence
	IncludeDeprecated bool
}

func (f Filter) matches(r *Record) bool {
	if len(f.Domain) > 0 && r.Domain != f.Domain {
		return false
	}
	if len(f.Type) > 0 && r.Type != f.Type {
		return false
	}
	if len(f.Release) > 0 && r.Release != f.Release {
		return false
	}
	if f.Cadence != nil && r.Cadence != *f.Cadence {
		return false
	}
	if !f.IncludeDeprecated && r.Deprecated {
		return false
	}
	return true
}

// Source supplies catalog records. The core only reads records and
// never caches them; callers inject the implementation they want.
type Source interface {
	Lookup(ctx context.Context, id string) (*Record, error)
	Query(ctx context.Context, filter Filter) ([]*Record, error)
}

// Table is an in-memory Source over a fixed set of records.
type Table struct {
	records []*Record
	index   map[string]*Record
}

func NewTable(records []*Record) (*Table, error) {
	table := &Table{index: make(map[string]*Record)}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if _, found := table.index[rec.ID]; found {
			return nil, fmt.Errorf("Duplicate record id: %s", rec.ID)
		}
		table.records = append(table.records, rec)
		table.index[rec.ID] = rec
	}
	return table, nil
}

func (t *Table) Len() int {
	return len(t.records)
}

func (t *Table) Lookup(ctx context.Context, id string) (*Record, error) {
	rec, found := t.index[id]
	if !found {
		return nil, &NotFoundError{ID: id}
	}
	return rec, nil
}

func (t *Table) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	var out []*Record
	for _, rec := range t.records {
		if filter.matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
