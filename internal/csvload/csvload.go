// Package csvload reads uploaded CSV files into ordered rows.
package csvload

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/model"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

const utf8BOM = "\ufeff"

// LoadRows opens path and parses it with ReadRows.
func LoadRows(path string) ([]*model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open csv %s", path)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read csv %s", path)
	}
	return rows, nil
}

// ReadRows parses a header-delimited CSV stream into rows in file order.
// Records shorter than the header are padded with empty values; extra
// trailing values are dropped.
func ReadRows(r io.Reader) ([]*model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrMissingColumn, "empty file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []*model.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse record %d", len(rows)+1)
		}

		row := model.NewRow()
		for i, col := range header {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			row.Set(col, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range model.RequiredColumns {
		if !present[col] {
			return errors.Wrapf(ErrMissingColumn, "%q", col)
		}
	}
	return nil
}
