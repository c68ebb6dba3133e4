package table

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/genmap/generation"
)

func TestPut(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, err := OpenTable(filename, 10)
		biff.AssertNil(err)
		defer c.Close()

		// Run
		h, err := c.Put(JSON{"hello": "world"})
		biff.AssertNil(err)

		// Check
		biff.AssertEqual(h, generation.Index{Position: 0, Generation: 0})

		fileContent, _ := os.ReadFile(filename)
		lines := strings.Split(strings.TrimSpace(string(fileContent)), "\n")
		biff.AssertEqual(len(lines), 2)

		command := &Command{}
		json.Unmarshal([]byte(lines[1]), command)
		biff.AssertEqual(command.Name, CommandPut)
		biff.AssertEqualJson(command.Payload, JSON{
			"handle":   "0.0",
			"document": JSON{"hello": "world"},
		})
		biff.AssertTrue(command.Uuid != "")
	})
}

func TestPut_NotAnObject(t *testing.T) {
	Environment(func(filename string) {
		c, _ := OpenTable(filename, 10)
		defer c.Close()

		_, err := c.Put([]int{1, 2, 3})
		biff.AssertTrue(errors.Is(err, ErrNotAnObject))

		_, err = c.PutRaw(json.RawMessage(`{"broken":`))
		biff.AssertTrue(errors.Is(err, ErrNotAnObject))

		biff.AssertEqual(c.Count(), 0)
	})
}

func TestOpenTable_InvalidCapacity(t *testing.T) {
	Environment(func(filename string) {
		_, err := OpenTable(filename, 0)
		biff.AssertTrue(errors.Is(err, ErrInvalidCapacity))

		_, err = OpenTable(filename, -1)
		biff.AssertTrue(errors.Is(err, ErrInvalidCapacity))

		// nothing is left on disk
		_, err = os.Stat(filename)
		biff.AssertTrue(os.IsNotExist(err))

		c, err := OpenTable(filename, 2)
		biff.AssertNil(err)
		biff.AssertEqual(c.Cap(), 2)
		c.Close()
	})
}

func TestTable_Lifecycle(t *testing.T) {
	biff.Alternative("Open table with capacity 3", func(a *biff.A) {
		Environment(func(filename string) {

			c, err := OpenTable(filename, 3)
			biff.AssertNil(err)
			defer c.Close()
			biff.AssertEqual(c.Cap(), 3)
			biff.AssertEqual(c.Count(), 0)

			hA, _ := c.Put(JSON{"name": "A"})
			hB, _ := c.Put(JSON{"name": "B"})

			a.Alternative("At", func(a *biff.A) {
				document, err := c.At(hB)
				biff.AssertNil(err)
				biff.AssertEqualJson(document, JSON{"name": "B"})
			})

			a.Alternative("Remove and reuse", func(a *biff.A) {
				removed, err := c.Remove(hA)
				biff.AssertNil(err)
				biff.AssertEqualJson(removed, JSON{"name": "A"})

				hC, err := c.Put(JSON{"name": "C"})
				biff.AssertNil(err)
				biff.AssertEqual(hC.Position, hA.Position)
				biff.AssertNotEqual(hC.Generation, hA.Generation)

				_, err = c.At(hA)
				biff.AssertTrue(errors.Is(err, generation.ErrStaleHandle))

				document, _ := c.At(hC)
				biff.AssertEqualJson(document, JSON{"name": "C"})
				biff.AssertEqual(c.Count(), 2)
			})

			a.Alternative("Remove twice", func(a *biff.A) {
				_, err := c.Remove(hA)
				biff.AssertNil(err)
				_, err = c.Remove(hA)
				biff.AssertTrue(errors.Is(err, generation.ErrStaleHandle))
			})

			a.Alternative("Capacity exceeded", func(a *biff.A) {
				_, err := c.Put(JSON{"name": "C"})
				biff.AssertNil(err)
				_, err = c.Put(JSON{"name": "D"})
				biff.AssertTrue(errors.Is(err, generation.ErrCapacityExceeded))
				biff.AssertEqual(c.Count(), 3)
			})

			a.Alternative("Out of range", func(a *biff.A) {
				_, err := c.At(generation.Index{Position: 99})
				biff.AssertTrue(errors.Is(err, generation.ErrOutOfRange))
			})

			a.Alternative("Patch", func(a *biff.A) {
				document, err := c.Patch(hA, JSON{"age": 33})
				biff.AssertNil(err)
				biff.AssertEqualJson(document, JSON{"name": "A", "age": 33})

				stored, _ := c.At(hA)
				biff.AssertEqualJson(stored, JSON{"name": "A", "age": 33})

				a.Alternative("Patch removing a field", func(a *biff.A) {
					document, err := c.Patch(hA, JSON{"age": nil})
					biff.AssertNil(err)
					biff.AssertEqualJson(document, JSON{"name": "A"})
				})
			})

			a.Alternative("Patch a stale handle", func(a *biff.A) {
				c.Remove(hB)
				_, err := c.Patch(hB, JSON{"x": 1})
				biff.AssertTrue(errors.Is(err, generation.ErrStaleHandle))
			})

			a.Alternative("Traverse", func(a *biff.A) {
				names := []string{}
				c.Traverse(func(h generation.Index, document json.RawMessage) bool {
					item := JSON{}
					json.Unmarshal(document, &item)
					names = append(names, h.String()+":"+item["name"].(string))
					return true
				})
				biff.AssertEqual(names, []string{"0.0:A", "1.0:B"})
			})

			a.Alternative("Closed", func(a *biff.A) {
				biff.AssertNil(c.Close())
				_, err := c.Put(JSON{"name": "C"})
				biff.AssertEqual(err, ErrTableClosed)
			})
		})
	})
}

func TestTable_Replay(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenTable(filename, 4)
		c.CreateIndex("by-name", &IndexOptions{Type: IndexTypeBTree, Fields: []string{"name"}, Unique: true})
		h0, _ := c.Put(JSON{"name": "Pablo"})
		h1, _ := c.Put(JSON{"name": "Sara"})
		c.Remove(h0)
		h2, _ := c.Put(JSON{"name": "Fulanez"})
		c.Patch(h1, JSON{"age": 30})
		c.Close()

		// Run
		c, err := OpenTable(filename, 100)
		biff.AssertNil(err)
		defer c.Close()

		// Check
		biff.AssertEqual(c.Cap(), 4)
		biff.AssertEqual(c.Count(), 2)

		_, err = c.At(h0)
		biff.AssertTrue(errors.Is(err, generation.ErrStaleHandle))

		document, _ := c.At(h1)
		biff.AssertEqualJson(document, JSON{"name": "Sara", "age": 30})

		document, _ = c.At(h2)
		biff.AssertEqualJson(document, JSON{"name": "Fulanez"})

		biff.AssertEqual(c.IndexNames(), []string{"by-name"})

		// the unique index is rebuilt
		_, err = c.Put(JSON{"name": "Sara"})
		biff.AssertTrue(errors.Is(err, ErrIndexConflict))

		// allocation continues where it left off
		h3, _ := c.Put(JSON{"name": "Mengano"})
		biff.AssertEqual(h3, generation.Index{Position: 2, Generation: 0})
	})
}

func TestTable_PatchUniqueConflict(t *testing.T) {
	biff.Alternative("Table with a unique index", func(a *biff.A) {
		Environment(func(filename string) {

			c, err := OpenTable(filename, 4)
			biff.AssertNil(err)
			defer c.Close()

			err = c.CreateIndex("by-email", &IndexOptions{Type: IndexTypeBTree, Field: "email", Unique: true})
			biff.AssertNil(err)

			hA, _ := c.Put(JSON{"email": "a"})
			hB, _ := c.Put(JSON{"email": "b"})

			_, err = c.Patch(hB, JSON{"email": "a"})
			biff.AssertTrue(errors.Is(err, ErrIndexConflict))

			a.Alternative("Document is unchanged", func(a *biff.A) {
				document, err := c.At(hB)
				biff.AssertNil(err)
				biff.AssertEqualJson(document, JSON{"email": "b"})

				document, _ = c.At(hA)
				biff.AssertEqualJson(document, JSON{"email": "a"})
			})

			a.Alternative("Index keeps the old value", func(a *biff.A) {
				_, err := c.Put(JSON{"email": "b"})
				biff.AssertTrue(errors.Is(err, ErrIndexConflict))

				handles := []string{}
				c.IndexTraverse("by-email", nil, func(h generation.Index, document json.RawMessage) bool {
					handles = append(handles, h.String())
					return true
				})
				biff.AssertEqual(handles, []string{hA.String(), hB.String()})
			})

			a.Alternative("Replay", func(a *biff.A) {
				biff.AssertNil(c.Close())

				c, err := OpenTable(filename, 4)
				biff.AssertNil(err)
				defer c.Close()

				document, _ := c.At(hB)
				biff.AssertEqualJson(document, JSON{"email": "b"})

				_, err = c.Put(JSON{"email": "b"})
				biff.AssertTrue(errors.Is(err, ErrIndexConflict))
			})
		})
	})
}

func TestTable_ReplayDiverged(t *testing.T) {
	Environment(func(filename string) {

		journal := `{"name":"create","uuid":"a","timestamp":1,"payload":{"capacity":2}}
{"name":"put","uuid":"b","timestamp":2,"payload":{"handle":"1.0","document":{"x":1}}}
`
		os.WriteFile(filename, []byte(journal), 0666)

		_, err := OpenTable(filename, 2)
		biff.AssertTrue(errors.Is(err, ErrJournalDiverged))
	})
}

func TestTable_ReplayWithoutCreate(t *testing.T) {
	Environment(func(filename string) {

		os.WriteFile(filename, []byte(`{"name":"put","payload":{"handle":"0.0","document":{}}}`), 0666)

		_, err := OpenTable(filename, 2)
		biff.AssertNotNil(err)
	})
}

func TestTable_Drop(t *testing.T) {
	Environment(func(filename string) {
		c, _ := OpenTable(filename, 2)

		biff.AssertNil(c.Drop())

		_, err := os.Stat(filename)
		biff.AssertTrue(os.IsNotExist(err))
	})
}

func TestTable_Put_Concurrency(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenTable(filename, 1000)
		defer c.Close()

		n := 100

		wg := &sync.WaitGroup{}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Put(JSON{"hello": "world"})
			}()
		}

		wg.Wait()

		biff.AssertEqual(c.Count(), n)

		c.Close()
		c, err := OpenTable(filename, 1000)
		biff.AssertNil(err)
		biff.AssertEqual(c.Count(), n)
		c.Close()
	})
}
