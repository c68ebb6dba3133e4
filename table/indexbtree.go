package table

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/fulldump/genmap/generation"
)

type IndexBtree struct {
	Btree   *btree.BTreeG[*RowOrdered]
	Options *IndexOptions
}

// RowOrdered is a btree entry. Pivot entries are only used as range bounds and
// sort before every entry with the same values.
type RowOrdered struct {
	Handle generation.Index
	Values []any
	pivot  bool
}

type IndexBtreeTraverse struct {
	Reverse bool           `json:"reverse"`
	From    map[string]any `json:"from"`
	To      map[string]any `json:"to"`
}

func NewIndexBTree(options *IndexOptions) *IndexBtree {

	reverse := make([]bool, len(options.Fields))
	for i, field := range options.Fields {
		reverse[i] = strings.HasPrefix(field, "-")
	}

	index := btree.NewG(32, func(a, b *RowOrdered) bool {
		for i := range a.Values {
			c := compareValues(a.Values[i], b.Values[i])
			if c == 0 {
				continue
			}
			if reverse[i] {
				return c > 0
			}
			return c < 0
		}

		if a.pivot != b.pivot {
			return a.pivot
		}

		return a.Handle.Uint64() < b.Handle.Uint64()
	})

	return &IndexBtree{
		Btree:   index,
		Options: options,
	}
}

// compareValues orders null < bool < number < string.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch a := a.(type) {
	case bool:
		b := b.(bool)
		if a == b {
			return 0
		}
		if !a {
			return -1
		}
		return 1
	case float64:
		b := b.(float64)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	case string:
		return strings.Compare(a, b.(string))
	}

	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}

func (b *IndexBtree) values(document json.RawMessage) ([]any, bool, error) {
	data := map[string]any{}
	if err := json.Unmarshal(document, &data); err != nil {
		return nil, false, fmt.Errorf("unmarshal: %w", err)
	}

	values := make([]any, 0, len(b.Options.Fields))
	for _, field := range b.Options.Fields {
		field = strings.TrimPrefix(field, "-")
		value, exists := data[field]
		if !exists {
			if b.Options.Sparse {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("field '%s' is indexed and mandatory", field)
		}
		if typeRank(value) > 3 {
			return nil, false, fmt.Errorf("field '%s': type not supported", field)
		}
		values = append(values, value)
	}

	return values, true, nil
}

func (b *IndexBtree) conflict(values []any) *RowOrdered {
	var found *RowOrdered
	b.Btree.AscendGreaterOrEqual(&RowOrdered{Values: values, pivot: true}, func(item *RowOrdered) bool {
		for i := range values {
			if compareValues(values[i], item.Values[i]) != 0 {
				return false
			}
		}
		found = item
		return false
	})
	return found
}

func (b *IndexBtree) Check(document json.RawMessage) error {
	values, ok, err := b.values(document)
	if err != nil || !ok || !b.Options.Unique {
		return err
	}

	if existing := b.conflict(values); existing != nil {
		pairs := make([]string, len(values))
		for i, field := range b.Options.Fields {
			pairs[i] = fmt.Sprint(field, ":", values[i])
		}
		return fmt.Errorf("%w: key (%s) already exists", ErrIndexConflict, strings.Join(pairs, ","))
	}

	return nil
}

func (b *IndexBtree) AddRow(h generation.Index, document json.RawMessage) error {
	if err := b.Check(document); err != nil {
		return err
	}

	values, ok, err := b.values(document)
	if err != nil || !ok {
		return err
	}

	b.Btree.ReplaceOrInsert(&RowOrdered{
		Handle: h,
		Values: values,
	})

	return nil
}

func (b *IndexBtree) RemoveRow(h generation.Index, document json.RawMessage) error {
	values, ok, err := b.values(document)
	if err != nil || !ok {
		return err
	}

	b.Btree.Delete(&RowOrdered{
		Handle: h,
		Values: values,
	})

	return nil
}

// Traverse walks [from, to) in index order, or backwards when Reverse is set.
func (b *IndexBtree) Traverse(optionsData []byte, f func(h generation.Index) bool) error {

	options := &IndexBtreeTraverse{}
	if len(optionsData) > 0 {
		if err := json.Unmarshal(optionsData, options); err != nil {
			return fmt.Errorf("traverse options: %w", err)
		}
	}

	iterator := func(r *RowOrdered) bool {
		return f(r.Handle)
	}

	hasFrom := len(options.From) > 0
	hasTo := len(options.To) > 0

	pivot := func(bound map[string]any) *RowOrdered {
		p := &RowOrdered{pivot: true}
		for _, field := range b.Options.Fields {
			field = strings.TrimPrefix(field, "-")
			p.Values = append(p.Values, bound[field])
		}
		return p
	}

	switch {
	case !hasFrom && !hasTo:
		if options.Reverse {
			b.Btree.Descend(iterator)
		} else {
			b.Btree.Ascend(iterator)
		}
	case hasFrom && !hasTo:
		if options.Reverse {
			b.Btree.DescendGreaterThan(pivot(options.From), iterator)
		} else {
			b.Btree.AscendGreaterOrEqual(pivot(options.From), iterator)
		}
	case !hasFrom && hasTo:
		if options.Reverse {
			b.Btree.DescendLessOrEqual(pivot(options.To), iterator)
		} else {
			b.Btree.AscendLessThan(pivot(options.To), iterator)
		}
	default:
		if options.Reverse {
			b.Btree.DescendRange(pivot(options.To), pivot(options.From), iterator)
		} else {
			b.Btree.AscendRange(pivot(options.From), pivot(options.To), iterator)
		}
	}

	return nil
}

func (b *IndexBtree) GetType() string {
	return IndexTypeBTree
}

func (b *IndexBtree) GetOptions() *IndexOptions {
	return b.Options
}
