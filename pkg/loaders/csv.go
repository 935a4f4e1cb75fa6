package loaders

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/tplforge/tplforge/pkg/coerce"
	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// loadCSV treats the first column as record keys and the remaining
// header columns as per-record attribute names:
//
//	name,cores,ram        {"compute": {"cores": 16, "ram": 64},
//	compute,16,64    ->    "storage": {"cores": 4,  "ram": 32}}
//	storage,4,32
//
// Cells are stripped (unless NoStrip) and coerced.
func loadCSV(path string, content []byte, opts types.Options, rep *report.Reporter) (map[string]any, error) {
	delim := opts.CSV.Delimiter
	if delim == 0 {
		delim = ','
	}
	return loadTable(path, content, delim, opts.CSV, rep)
}

// loadTSV is the CSV loader fixed to tab separation.
func loadTSV(path string, content []byte, opts types.Options, rep *report.Reporter) (map[string]any, error) {
	return loadTable(path, content, '\t', opts.CSV, rep)
}

func loadTable(path string, content []byte, delim rune, opts types.CSVOptions, rep *report.Reporter) (map[string]any, error) {
	rows, err := readRows(content, delim, opts.Escape)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrVarParse, "cannot parse CSV variables file '%s'", path)
	}
	if len(rows) == 0 {
		return map[string]any{}, nil
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, errors.Newf(errors.ErrVarParse,
			"CSV variables file '%s' needs a key column and at least one attribute column", path)
	}

	clean := func(cell string) string {
		if opts.NoStrip {
			return cell
		}
		return strings.TrimSpace(cell)
	}

	attrs := make([]string, len(header)-1)
	for i, cell := range header[1:] {
		attrs[i] = clean(cell)
	}

	out := map[string]any{}
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, errors.Newf(errors.ErrVarParse,
				"CSV variables file '%s' has a row with %d columns, header has %d", path, len(row), len(header))
		}
		key := clean(row[0])
		record := make(map[string]any, len(attrs))
		for i, cell := range row[1:] {
			record[attrs[i]] = coerce.Coerce(clean(cell))
		}
		if old, dup := out[key]; dup {
			rep.Warnf("Variable '%s' got overwritten from '%v' to '%v' while loading '%s'.", key, old, record, path)
		}
		out[key] = record
	}
	return out, nil
}

// readRows parses with encoding/csv, falling back to a minimal
// escape-aware splitter when an escape character is configured, which
// the standard reader does not support.
func readRows(content []byte, delim, escape rune) ([][]string, error) {
	if escape == 0 {
		reader := csv.NewReader(bytes.NewReader(content))
		reader.Comma = delim
		return reader.ReadAll()
	}

	var rows [][]string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitEscaped(line, delim, escape))
	}
	return rows, nil
}

func splitEscaped(line string, delim, escape rune) []string {
	var fields []string
	var field strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			field.WriteRune(r)
			escaped = false
		case r == escape:
			escaped = true
		case r == delim:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	fields = append(fields, field.String())
	return fields
}
