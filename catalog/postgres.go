package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresSource reads catalog records from a Postgres table.
// The nullif() noise coerces Go's empty string zero values for
// missing predicates into proper null arguments so one prepared
// statement serves every filter combination.
type PostgresSource struct {
	db    *sql.DB
	table string
}

const recordColumns = `id, domain, type, release, title, description, units,
	cadence, url_template,
	coalesce(min_year, 0), coalesce(max_year, 0),
	coalesce(to_char(min_date, 'YYYY-MM-DD'), ''), coalesce(to_char(max_date, 'YYYY-MM-DD'), ''),
	coalesce(scale_value, 1), coalesce(offset_value, 0), coalesce(nodata, 0),
	coalesce(crs, ''), deprecated, coalesce(descriptor_template, '')`

func NewPostgresSource(connStr string, table string, poolSize int) (*PostgresSource, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("Error opening catalog database: %v", err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize)
	}
	if len(table) == 0 {
		table = "records"
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

func (s *PostgresSource) Lookup(ctx context.Context, id string) (*Record, error) {
	query := fmt.Sprintf(`select %s from %s where id = $1`, recordColumns, s.table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("Catalog lookup error for %s: %v", id, err)
	}
	return rec, nil
}

func (s *PostgresSource) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	cadence := ""
	if filter.Cadence != nil {
		cadence = filter.Cadence.String()
	}

	query := fmt.Sprintf(`select %s from %s
		where (nullif($1, '') is null or domain = $1)
		and (nullif($2, '') is null or type = $2)
		and (nullif($3, '') is null or release = $3)
		and (nullif($4, '') is null or cadence = $4)
		and ($5 or not deprecated)
		order by id`, recordColumns, s.table)

	rows, err := s.db.QueryContext(ctx, query,
		filter.Domain, filter.Type, filter.Release, cadence, filter.IncludeDeprecated)
	if err != nil {
		return nil, fmt.Errorf("Catalog query error: %v", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("Catalog scan error: %v", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var cadence string
	err := row.Scan(&rec.ID, &rec.Domain, &rec.Type, &rec.Release,
		&rec.Title, &rec.Description, &rec.Units,
		&cadence, &rec.URLTemplate,
		&rec.MinYear, &rec.MaxYear, &rec.MinDate, &rec.MaxDate,
		&rec.ScaleValue, &rec.OffsetValue, &rec.NoData,
		&rec.CRS, &rec.Deprecated, &rec.DescriptorTemplate)
	if err != nil {
		return nil, err
	}
	rec.Cadence, err = ParseCadence(cadence)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
