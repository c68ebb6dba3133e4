package table

import (
	"encoding/json"
	"fmt"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/genmap/generation"
)

type FindOptions struct {
	Filter map[string]any `json:"filter"`
	Skip   int64          `json:"skip"`
	Limit  int64          `json:"limit"` // 0 means no limit
}

// visitor wraps f with filtering, skip and limit. The returned error pointer
// holds the first match failure once the traversal is over.
func (options FindOptions) visitor(f func(h generation.Index, document json.RawMessage) bool) (func(h generation.Index, document json.RawMessage) bool, *error) {

	hasFilter := len(options.Filter) > 0
	skip := options.Skip
	limit := options.Limit

	var err error
	return func(h generation.Index, document json.RawMessage) bool {

		if hasFilter {
			rowData := map[string]any{}
			if err = json.Unmarshal(document, &rowData); err != nil {
				err = fmt.Errorf("decode %s: %w", h, err)
				return false
			}

			var match bool
			match, err = connor.Match(options.Filter, rowData)
			if err != nil {
				err = fmt.Errorf("match: %w", err)
				return false
			}
			if !match {
				return true
			}
		}

		if skip > 0 {
			skip--
			return true
		}

		if !f(h, document) {
			return false
		}

		if limit > 0 {
			limit--
			if limit == 0 {
				return false
			}
		}
		return true
	}, &err
}

// Find scans every document in position order and calls f for the ones that
// match options.Filter.
func (t *Table) Find(options FindOptions, f func(h generation.Index, document json.RawMessage) bool) error {
	visit, err := options.visitor(f)
	t.rows.Traverse(visit)
	return *err
}

// FindIndex is Find walking the index name in its own order instead of
// scanning. traverseOptions are passed to the index untouched.
func (t *Table) FindIndex(name string, traverseOptions []byte, options FindOptions, f func(h generation.Index, document json.RawMessage) bool) error {
	visit, err := options.visitor(f)
	if traverseErr := t.IndexTraverse(name, traverseOptions, visit); traverseErr != nil {
		return traverseErr
	}
	return *err
}
