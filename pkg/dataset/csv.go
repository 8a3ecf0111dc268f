package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// ReadCSV parses a comma-separated spectrum. The header names each column with
// an optional bracketed unit, e.g. "energy [TeV]". Lines starting with '#'
// are comments; a comment of the form "# cl: 0.95" (or "# cl = 0.95") sets
// the upper-limit confidence level. The "ul" column is kept as raw text.
func ReadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, ferrors.WrapIO(err, ferrors.ErrIOReadFailed, "failed to read data table")
	}

	t := NewTable()
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if key, value, ok := splitMeta(body); ok && strings.EqualFold(key, "cl") {
			cl, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, ferrors.WrapData(err, ferrors.ErrDataInvalidCL, "cl keyword is not a number")
			}
			t.CL = &cl
			continue
		}
		t.Comments = append(t.Comments, body)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, ferrors.WrapData(err, ferrors.ErrDataParseFailed, "failed to parse data table")
	}
	if len(records) == 0 {
		return nil, ferrors.DataFormat(ferrors.ErrDataEmpty, "data table has no header")
	}

	header := records[0]
	cols := make([]*Column, len(header))
	for i, h := range header {
		name, unit := splitHeader(h)
		cols[i] = &Column{Name: name, Unit: unit}
		t.Columns[name] = cols[i]
	}

	for row, rec := range records[1:] {
		for i, cell := range rec {
			col := cols[i]
			cell = strings.TrimSpace(cell)
			if col.Name == "ul" {
				col.Raw = append(col.Raw, cell)
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, ferrors.WrapData(err, ferrors.ErrDataParseFailed, "non-numeric cell").
					WithContext("column", col.Name).
					WithContext("row", strconv.Itoa(row+1))
			}
			col.Values = append(col.Values, v)
		}
	}
	return t, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.WrapIO(err, ferrors.ErrIOReadFailed, "failed to open data table").
			WithContext("path", path)
	}
	defer f.Close()
	return ReadCSV(f)
}

func splitHeader(h string) (name, unit string) {
	h = strings.TrimSpace(h)
	open := strings.Index(h, "[")
	if open < 0 || !strings.HasSuffix(h, "]") {
		return h, ""
	}
	return strings.TrimSpace(h[:open]), strings.TrimSpace(h[open+1 : len(h)-1])
}

func splitMeta(s string) (key, value string, ok bool) {
	for _, sep := range []string{":", "="} {
		if k, v, found := strings.Cut(s, sep); found {
			return strings.TrimSpace(k), strings.TrimSpace(v), true
		}
	}
	return "", "", false
}
