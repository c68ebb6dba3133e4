package table

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fulldump/genmap/generation"
	"github.com/fulldump/genmap/utils"
)

var (
	ErrIndexNotFound      = errors.New("index not found")
	ErrIndexAlreadyExists = errors.New("index already exists")
	ErrIndexConflict      = errors.New("index conflict")
)

const (
	IndexTypeBTree  = "btree"
	IndexTypeBitmap = "bitmap"
)

// Index maps document fields to handles.
type Index interface {
	// Check reports whether document could be added without error.
	Check(document json.RawMessage) error
	AddRow(h generation.Index, document json.RawMessage) error
	RemoveRow(h generation.Index, document json.RawMessage) error
	Traverse(options []byte, f func(h generation.Index) bool) error
	GetType() string
	GetOptions() *IndexOptions
}

// IndexOptions configures an index. Fields is used by btree indexes (a leading
// '-' sorts that field descending), Field by bitmap indexes.
type IndexOptions struct {
	Type   string   `json:"type"`
	Field  string   `json:"field,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Sparse bool     `json:"sparse"`
	Unique bool     `json:"unique"`
}

func NewIndex(options *IndexOptions) (Index, error) {
	if options == nil {
		return nil, fmt.Errorf("index options are required")
	}

	switch options.Type {
	case IndexTypeBTree:
		if len(options.Fields) == 0 && options.Field != "" {
			options.Fields = []string{options.Field}
		}
		if len(options.Fields) == 0 {
			return nil, fmt.Errorf("btree index needs at least one field")
		}
		return NewIndexBTree(options), nil
	case IndexTypeBitmap:
		if options.Field == "" {
			return nil, fmt.Errorf("bitmap index needs a field")
		}
		if options.Unique {
			return nil, fmt.Errorf("bitmap index can not be unique")
		}
		return NewIndexBitmap(options), nil
	}

	return nil, fmt.Errorf("unknown index type '%s'", options.Type)
}

// index and unindex never fail for documents that passed Check.
func (t *Table) index(h generation.Index, document json.RawMessage) {
	for name, index := range t.indexes {
		if err := index.AddRow(h, document); err != nil {
			panic(fmt.Sprintf("index '%s' rejected checked document %s: %s", name, h, err.Error()))
		}
	}
}

func (t *Table) unindex(h generation.Index, document json.RawMessage) {
	for _, index := range t.indexes {
		index.RemoveRow(h, document)
	}
}

func (t *Table) reindex(h generation.Index, oldDocument, newDocument json.RawMessage) error {
	t.unindex(h, oldDocument)

	for name, index := range t.indexes {
		if err := index.Check(newDocument); err != nil {
			t.index(h, oldDocument)
			return fmt.Errorf("index '%s': %w", name, err)
		}
	}

	t.index(h, newDocument)
	return nil
}

// CreateIndex builds an index over the current documents and keeps it up to
// date from then on.
func (t *Table) CreateIndex(name string, options *IndexOptions) error {
	return t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
		if err := t.writable(); err != nil {
			return err
		}

		err := t.createIndex(m, name, options)
		if err != nil {
			return err
		}

		return t.persist(CommandIndex, &indexPayload{Name: name, Options: options})
	})
}

func (t *Table) createIndex(m *generation.Map[json.RawMessage], name string, options *IndexOptions) error {
	if _, exists := t.indexes[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrIndexAlreadyExists, name)
	}

	index, err := NewIndex(options)
	if err != nil {
		return err
	}

	m.Traverse(func(h generation.Index, document json.RawMessage) bool {
		err = index.AddRow(h, document)
		if err != nil {
			err = fmt.Errorf("index row %s: %w", h, err)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	t.indexes[name] = index
	return nil
}

func (t *Table) DropIndex(name string) error {
	return t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
		if err := t.writable(); err != nil {
			return err
		}

		err := t.dropIndex(name)
		if err != nil {
			return err
		}

		return t.persist(CommandDropIndex, &dropIndexPayload{Name: name})
	})
}

func (t *Table) dropIndex(name string) error {
	if _, exists := t.indexes[name]; !exists {
		return fmt.Errorf("%w: '%s'", ErrIndexNotFound, name)
	}
	delete(t.indexes, name)
	return nil
}

// Indexes returns the options of every index, by name.
func (t *Table) Indexes() map[string]*IndexOptions {
	result := map[string]*IndexOptions{}
	t.rows.Read(func(m *generation.Map[json.RawMessage]) error {
		for name, index := range t.indexes {
			options := *index.GetOptions()
			result[name] = &options
		}
		return nil
	})
	return result
}

// IndexNames returns index names in lexical order.
func (t *Table) IndexNames() []string {
	return utils.GetKeys(t.Indexes())
}

// IndexTraverse walks the documents matched by an index. The meaning of options
// depends on the index type.
func (t *Table) IndexTraverse(name string, options []byte, f func(h generation.Index, document json.RawMessage) bool) error {
	return t.rows.Read(func(m *generation.Map[json.RawMessage]) error {
		index, exists := t.indexes[name]
		if !exists {
			return fmt.Errorf("%w: '%s'", ErrIndexNotFound, name)
		}

		return index.Traverse(options, func(h generation.Index) bool {
			document, err := m.At(h)
			if err != nil {
				// indexes are maintained under the same lock
				return true
			}
			return f(h, document)
		})
	})
}
