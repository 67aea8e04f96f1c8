// Package sql implements the "SQL" extractor adapter: a driver-agnostic
// batch extractor that runs a query against a *sql.DB registered by
// connection code and emits one envelope per result row.
package sql

import (
	"database/sql"
	"fmt"

	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/infrastructure/extractors"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

const AdapterCode = "sql"

// Config is a SQL extractor step's declarative config.
type Config struct {
	ConnectionCode string `json:"connectionCode" yaml:"connectionCode" validate:"required"`
	Query          string `json:"query" yaml:"query" validate:"required"`
	OffsetParam    string `json:"offsetParam,omitempty" yaml:"offsetParam,omitempty"`
	BatchSize      int    `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`
	MaxPages       int    `json:"maxPages,omitempty" yaml:"maxPages,omitempty"`
}

// DBResolver opens (or returns a cached) *sql.DB for a connection code,
// the way ports.ConnectionResolver resolves settings for other adapters.
// The extractor never imports a concrete driver itself; whatever driver
// package the operator's binary registers via database/sql/driver is
// what DBResolver hands back.
type DBResolver interface {
	Open(connectionCode string) (*sql.DB, error)
}

// Extractor runs a paginated query against a resolved *sql.DB.
type Extractor struct {
	DBs DBResolver
}

// New constructs the SQL extractor adapter over the given DB resolver.
func New(dbs DBResolver) *Extractor {
	return &Extractor{DBs: dbs}
}

func (e *Extractor) Category() string    { return "database" }
func (e *Extractor) AdapterCode() string { return AdapterCode }

func (e *Extractor) GetSchema() map[string]any {
	return map[string]any{
		"connectionCode": "string, required, resolves the target database connection",
		"query":          "string, required SQL SELECT, LIMIT and OFFSET clauses are appended to it when paginating",
		"offsetParam":    "string, optional, any non-empty value enables pagination together with batchSize, defaults to no pagination",
		"batchSize":      "int, optional rows per page when offsetParam is set",
		"maxPages":       "int, optional cap on pages fetched when offsetParam is set, defaults to 1",
	}
}

func (e *Extractor) Validate(cfg map[string]any) error {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding sql extractor config")
	}
	if c.ConnectionCode == "" || c.Query == "" {
		return pipelineerr.New(pipelineerr.ConfigInvalid, "sql extractor requires connectionCode and query")
	}
	return nil
}

func (e *Extractor) TestConnection(ectx ports.ExtractorContext, cfg map[string]any) error {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding sql extractor config")
	}
	db, err := e.open(c)
	if err != nil {
		return err
	}
	if err := db.PingContext(ectx.Context); err != nil {
		return pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "pinging "+c.ConnectionCode)
	}
	return nil
}

// ExtractAll runs the configured query, optionally paginating by
// appending LIMIT/OFFSET clauses when OffsetParam and BatchSize are set,
// up to MaxPages pages.
func (e *Extractor) ExtractAll(ectx ports.ExtractorContext, cfg map[string]any) (ports.ExtractResult, error) {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding sql extractor config")
	}

	db, err := e.open(c)
	if err != nil {
		return ports.ExtractResult{}, err
	}

	paginated := c.OffsetParam != "" && c.BatchSize > 0
	maxPages := c.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	if !paginated {
		maxPages = 1
	}

	var envelopes []envelope.Envelope
	for page := 0; page < maxPages; page++ {
		if ectx.IsCancelled != nil && ectx.IsCancelled() {
			return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
		}

		query := c.Query
		args := []any{}
		if paginated {
			query = fmt.Sprintf("%s LIMIT %d OFFSET %d", c.Query, c.BatchSize, page*c.BatchSize)
		}

		rows, err := db.QueryContext(ectx.Context, query, args...)
		if err != nil {
			return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "executing sql query")
		}

		records, err := scanRows(rows)
		rows.Close()
		if err != nil {
			return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.AdapterFatal, err, "scanning sql result set")
		}

		for i, rec := range records {
			seq := int64(page*c.BatchSize + i)
			envelopes = append(envelopes, envelope.Envelope{
				Data: rec,
				Meta: envelope.Meta{SourceID: c.ConnectionCode, Sequence: &seq},
			})
		}

		if !paginated || len(records) < c.BatchSize {
			break
		}
	}
	return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
}

func (e *Extractor) open(c Config) (*sql.DB, error) {
	if e.DBs == nil {
		return nil, pipelineerr.New(pipelineerr.Infrastructure, "sql extractor has no database resolver configured")
	}
	db, err := e.DBs.Open(c.ConnectionCode)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "opening connection "+c.ConnectionCode)
	}
	return db, nil
}

// scanRows converts a *sql.Rows result set into generic records keyed by
// column name, the same dynamic shape every other extractor emits.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			rec[col] = normalizeSQLValue(values[i])
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// normalizeSQLValue converts []byte (the driver's default for TEXT/VARCHAR
// columns on several drivers) into a string so downstream transforms see
// ordinary strings rather than raw byte slices.
func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

var (
	_ ports.Extractor        = (*Extractor)(nil)
	_ ports.BatchExtractor   = (*Extractor)(nil)
	_ ports.Validatable      = (*Extractor)(nil)
	_ ports.SchemaProvider   = (*Extractor)(nil)
	_ ports.ConnectionTester = (*Extractor)(nil)
)
