package table

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/genmap/generation"
)

func traverseHandles(index Index, options string) []string {
	result := []string{}
	index.Traverse([]byte(options), func(h generation.Index) bool {
		result = append(result, h.String())
		return true
	})
	return result
}

func Test_IndexBTree_HappyPath(t *testing.T) {

	index := NewIndexBTree(&IndexOptions{
		Type:   IndexTypeBTree,
		Fields: []string{"id"},
		Unique: true,
	})

	n := 4
	for i := 0; i < n; i++ {
		data, _ := json.Marshal(JSON{
			"id": float64(n - i),
		})
		err := index.AddRow(generation.Index{Position: uint32(i)}, data)
		biff.AssertNil(err)
	}

	biff.AssertEqual(traverseHandles(index, `{}`), []string{"3.0", "2.0", "1.0", "0.0"})
	biff.AssertEqual(traverseHandles(index, `{"reverse":true}`), []string{"0.0", "1.0", "2.0", "3.0"})
	biff.AssertEqual(traverseHandles(index, `{"from":{"id":2},"to":{"id":4}}`), []string{"2.0", "1.0"})
	biff.AssertEqual(traverseHandles(index, `{"from":{"id":2},"to":{"id":4},"reverse":true}`), []string{"1.0", "2.0"})
	biff.AssertEqual(traverseHandles(index, `{"from":{"id":3}}`), []string{"1.0", "0.0"})
	biff.AssertEqual(traverseHandles(index, `{"to":{"id":3}}`), []string{"3.0", "2.0"})
	biff.AssertEqual(traverseHandles(index, `{"to":{"id":3},"reverse":true}`), []string{"2.0", "3.0"})
	biff.AssertEqual(traverseHandles(index, `{"from":{"id":3},"reverse":true}`), []string{"0.0", "1.0"})
}

func Test_IndexBTree_Unique(t *testing.T) {

	index := NewIndexBTree(&IndexOptions{
		Type:   IndexTypeBTree,
		Fields: []string{"email"},
		Unique: true,
	})

	err := index.AddRow(generation.Index{Position: 0}, json.RawMessage(`{"email":"a@example.com"}`))
	biff.AssertNil(err)

	err = index.Check(json.RawMessage(`{"email":"a@example.com"}`))
	biff.AssertTrue(errors.Is(err, ErrIndexConflict))

	err = index.RemoveRow(generation.Index{Position: 0}, json.RawMessage(`{"email":"a@example.com"}`))
	biff.AssertNil(err)

	err = index.Check(json.RawMessage(`{"email":"a@example.com"}`))
	biff.AssertNil(err)
}

func Test_IndexBTree_NonUniqueDuplicates(t *testing.T) {

	index := NewIndexBTree(&IndexOptions{
		Type:   IndexTypeBTree,
		Fields: []string{"city", "-age"},
	})

	rows := []string{
		`{"city":"Madrid","age":20}`,
		`{"city":"Bilbao","age":40}`,
		`{"city":"Madrid","age":30}`,
		`{"city":"Madrid","age":30}`,
	}
	for i, row := range rows {
		biff.AssertNil(index.AddRow(generation.Index{Position: uint32(i)}, json.RawMessage(row)))
	}

	biff.AssertEqual(traverseHandles(index, `{}`), []string{"1.0", "2.0", "3.0", "0.0"})
}

func Test_IndexBTree_Mandatory(t *testing.T) {

	index := NewIndexBTree(&IndexOptions{Type: IndexTypeBTree, Fields: []string{"id"}})
	err := index.AddRow(generation.Index{}, json.RawMessage(`{"name":"no id"}`))
	biff.AssertNotNil(err)

	err = index.AddRow(generation.Index{}, json.RawMessage(`{"id":{"nested":true}}`))
	biff.AssertNotNil(err)

	sparse := NewIndexBTree(&IndexOptions{Type: IndexTypeBTree, Fields: []string{"id"}, Sparse: true})
	err = sparse.AddRow(generation.Index{}, json.RawMessage(`{"name":"no id"}`))
	biff.AssertNil(err)
	biff.AssertEqual(sparse.Btree.Len(), 0)
}

func Test_CompareValues(t *testing.T) {
	biff.AssertTrue(compareValues(nil, false) < 0)
	biff.AssertTrue(compareValues(true, 1.0) < 0)
	biff.AssertTrue(compareValues(100.0, "a") < 0)
	biff.AssertTrue(compareValues("b", "a") > 0)
	biff.AssertEqual(compareValues(2.0, 2.0), 0)
	biff.AssertTrue(compareValues(false, true) < 0)
}
