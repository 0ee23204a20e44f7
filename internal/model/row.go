package model

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Well-known CSV columns.
const (
	ColumnURL       = "Url"
	ColumnFieldname = "Fieldname"
	ColumnValue     = "Value"
	ColumnAction    = "Action"
	ColumnStatus    = "Status"
)

// Row statuses.
const (
	StatusPass = "Pass"
	StatusFail = "Fail"
)

// RequiredColumns must be present in every uploaded CSV header.
var RequiredColumns = []string{ColumnURL, ColumnFieldname, ColumnValue}

// Row is one CSV record: an ordered mapping of column name to value.
// Column order follows the CSV header; Status is appended after verification.
type Row struct {
	cols *orderedmap.OrderedMap[string, string]
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{cols: orderedmap.New[string, string]()}
}

// RowFrom builds a row from alternating key, value pairs. Handy in tests.
func RowFrom(kv ...string) *Row {
	r := NewRow()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func (r *Row) Set(key, value string) {
	r.cols.Set(key, value)
}

func (r *Row) Get(key string) (string, bool) {
	return r.cols.Get(key)
}

// Lookup returns the column value or "" when absent.
func (r *Row) Lookup(key string) string {
	v, _ := r.cols.Get(key)
	return v
}

func (r *Row) Len() int {
	return r.cols.Len()
}

// Keys returns the column names in order.
func (r *Row) Keys() []string {
	keys := make([]string, 0, r.cols.Len())
	for p := r.cols.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

func (r *Row) URL() string { return r.Lookup(ColumnURL) }

// Fieldname is the trimmed query parameter name to look for.
func (r *Row) Fieldname() string { return strings.TrimSpace(r.Lookup(ColumnFieldname)) }

// Value is the trimmed expected parameter value.
func (r *Row) Value() string { return strings.TrimSpace(r.Lookup(ColumnValue)) }

func (r *Row) Action() string { return r.Lookup(ColumnAction) }

func (r *Row) Status() string { return r.Lookup(ColumnStatus) }

func (r *Row) SetStatus(status string) { r.Set(ColumnStatus, status) }

func (r *Row) MarshalJSON() ([]byte, error) {
	return r.cols.MarshalJSON()
}

func (r *Row) UnmarshalJSON(data []byte) error {
	if r.cols == nil {
		r.cols = orderedmap.New[string, string]()
	}
	return json.Unmarshal(data, r.cols)
}
