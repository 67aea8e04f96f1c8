// Package file implements the "file" extractor adapter: reads a local or
// mounted CSV, JSON array, or newline-delimited JSON file and emits one
// envelope per row/element.
package file

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/infrastructure/extractors"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

const AdapterCode = "file"

// Format names the file's codec.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatAuto   Format = ""
)

// Config is a file extractor step's declarative config.
type Config struct {
	Path      string `json:"path" yaml:"path" validate:"required"`
	Format    Format `json:"format,omitempty" yaml:"format,omitempty"`
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	HasHeader *bool  `json:"hasHeader,omitempty" yaml:"hasHeader,omitempty"`
}

// Extractor reads a local file and emits one envelope per record.
type Extractor struct{}

// New constructs the file extractor adapter.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Category() string    { return "file" }
func (e *Extractor) AdapterCode() string { return AdapterCode }

func (e *Extractor) GetSchema() map[string]any {
	return map[string]any{
		"path":      "string, required path to a local or mounted file",
		"format":    "string, one of csv|json|ndjson, inferred from the file extension when omitted",
		"delimiter": "string, single-character CSV field delimiter, defaults to comma",
		"hasHeader": "bool, whether the first CSV row names columns, defaults to true",
	}
}

func (e *Extractor) Validate(cfg map[string]any) error {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding file extractor config")
	}
	if c.Path == "" {
		return pipelineerr.New(pipelineerr.ConfigInvalid, "file extractor requires path")
	}
	return nil
}

func (e *Extractor) ExtractAll(ectx ports.ExtractorContext, cfg map[string]any) (ports.ExtractResult, error) {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding file extractor config")
	}

	f, err := os.Open(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "file not found: "+c.Path)
		}
		return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "opening "+c.Path)
	}
	defer f.Close()

	format := c.Format
	if format == FormatAuto {
		format = inferFormat(c.Path)
	}

	var records []map[string]any
	switch format {
	case FormatCSV:
		records, err = readCSV(f, c)
	case FormatNDJSON:
		records, err = readNDJSON(f)
	default:
		records, err = readJSONArray(f)
	}
	if err != nil {
		return ports.ExtractResult{}, err
	}

	envelopes := make([]envelope.Envelope, 0, len(records))
	for i, rec := range records {
		if ectx.IsCancelled != nil && ectx.IsCancelled() {
			break
		}
		seq := int64(i)
		envelopes = append(envelopes, envelope.Envelope{
			Data: rec,
			Meta: envelope.Meta{SourceID: c.Path, Sequence: &seq},
		})
	}
	return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
}

func inferFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	default:
		return FormatJSON
	}
}

func readCSV(r io.Reader, c Config) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if c.Delimiter != "" {
		reader.Comma = []rune(c.Delimiter)[0]
	}

	hasHeader := true
	if c.HasHeader != nil {
		hasHeader = *c.HasHeader
	}

	var header []string
	var records []map[string]any
	rowIdx := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "reading csv row")
		}
		if rowIdx == 0 && hasHeader {
			header = row
			rowIdx++
			continue
		}
		rec := make(map[string]any, len(row))
		for i, value := range row {
			key := columnName(header, i)
			rec[key] = value
		}
		records = append(records, rec)
		rowIdx++
	}
	return records, nil
}

func columnName(header []string, idx int) string {
	if idx < len(header) {
		return header[idx]
	}
	return "col" + strconv.Itoa(idx)
}

func readJSONArray(r io.Reader) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "parsing JSON array")
	}
	return records, nil
}

func readNDJSON(r io.Reader) ([]map[string]any, error) {
	var records []map[string]any
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "parsing ndjson line")
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "reading ndjson")
	}
	return records, nil
}

var (
	_ ports.Extractor      = (*Extractor)(nil)
	_ ports.BatchExtractor = (*Extractor)(nil)
	_ ports.Validatable    = (*Extractor)(nil)
	_ ports.SchemaProvider = (*Extractor)(nil)
)
