package table

import (
	"encoding/json"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/fulldump/genmap/generation"
)

// IndexBitmap is a non unique equality index: every distinct value of Field
// owns a bitmap of slot positions. Array fields index each element.
type IndexBitmap struct {
	Entries     map[string]*roaring.Bitmap
	generations map[uint32]uint32
	Options     *IndexOptions
}

type IndexBitmapTraverse struct {
	Value any `json:"value"`
}

func NewIndexBitmap(options *IndexOptions) *IndexBitmap {
	return &IndexBitmap{
		Entries:     map[string]*roaring.Bitmap{},
		generations: map[uint32]uint32{},
		Options:     options,
	}
}

func valueKey(value any) (string, error) {
	switch value.(type) {
	case nil, bool, float64, string:
		key, err := json.Marshal(value)
		return string(key), err
	}
	return "", fmt.Errorf("type not supported")
}

func (i *IndexBitmap) keys(document json.RawMessage) ([]string, error) {
	item := map[string]any{}
	if err := json.Unmarshal(document, &item); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	field := i.Options.Field
	itemValue, itemExists := item[field]
	if !itemExists {
		if i.Options.Sparse {
			return nil, nil
		}
		return nil, fmt.Errorf("field '%s' is indexed and mandatory", field)
	}

	values, isArray := itemValue.([]any)
	if !isArray {
		values = []any{itemValue}
	}

	keys := make([]string, 0, len(values))
	for _, v := range values {
		key, err := valueKey(v)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", field, err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}

func (i *IndexBitmap) Check(document json.RawMessage) error {
	_, err := i.keys(document)
	return err
}

func (i *IndexBitmap) AddRow(h generation.Index, document json.RawMessage) error {
	keys, err := i.keys(document)
	if err != nil {
		return err
	}

	for _, key := range keys {
		bitmap, ok := i.Entries[key]
		if !ok {
			bitmap = roaring.New()
			i.Entries[key] = bitmap
		}
		bitmap.Add(h.Position)
	}
	if len(keys) > 0 {
		i.generations[h.Position] = h.Generation
	}

	return nil
}

func (i *IndexBitmap) RemoveRow(h generation.Index, document json.RawMessage) error {
	keys, err := i.keys(document)
	if err != nil {
		return err
	}

	for _, key := range keys {
		bitmap, ok := i.Entries[key]
		if !ok {
			continue
		}
		bitmap.Remove(h.Position)
		if bitmap.IsEmpty() {
			delete(i.Entries, key)
		}
	}
	delete(i.generations, h.Position)

	return nil
}

// Traverse visits the documents whose field equals options.value, by
// ascending position.
func (i *IndexBitmap) Traverse(optionsData []byte, f func(h generation.Index) bool) error {
	options := &IndexBitmapTraverse{}
	if err := json.Unmarshal(optionsData, options); err != nil {
		return fmt.Errorf("traverse options: %w", err)
	}

	key, err := valueKey(options.Value)
	if err != nil {
		return err
	}

	bitmap, ok := i.Entries[key]
	if !ok {
		return nil
	}

	iterator := bitmap.Iterator()
	for iterator.HasNext() {
		position := iterator.Next()
		h := generation.Index{Position: position, Generation: i.generations[position]}
		if !f(h) {
			break
		}
	}

	return nil
}

// Len returns the number of distinct indexed values.
func (i *IndexBitmap) Len() int {
	return len(i.Entries)
}

func (i *IndexBitmap) GetType() string {
	return IndexTypeBitmap
}

func (i *IndexBitmap) GetOptions() *IndexOptions {
	return i.Options
}
