package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/uuid"

	"github.com/fulldump/genmap/generation"
)

var (
	ErrTableClosed     = errors.New("table is closed")
	ErrJournalDiverged = errors.New("journal diverged from allocation order")
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrNotAnObject     = errors.New("document must be a JSON object")
)

// Table is a fixed-capacity set of JSON documents addressed by generation
// handles and persisted in an append-only journal.
type Table struct {
	Filename string
	file     *os.File
	rows     *generation.Sync[json.RawMessage]
	indexes  map[string]Index // guarded by the rows lock
	broken   error
}

// OpenTable replays the journal at filename, creating it with capacity slots
// when it does not exist yet. The capacity stored in an existing journal wins.
// A journal created by a failing call is removed.
func OpenTable(filename string, capacity int) (t *Table, err error) {

	_, statErr := os.Stat(filename)
	missing := errors.Is(statErr, fs.ErrNotExist)
	if missing {
		if err := ValidateCapacity(capacity); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(filename, os.O_RDONLY|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for read: %w", err)
	}
	defer f.Close()

	if missing {
		defer func() {
			if err != nil {
				os.Remove(filename)
			}
		}()
	}

	t = &Table{
		Filename: filename,
		indexes:  map[string]Index{},
	}

	j := json.NewDecoder(f)
	for n := 0; ; n++ {
		command := &Command{}
		err = j.Decode(command)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}

		if n == 0 {
			if command.Name != CommandCreate {
				return nil, fmt.Errorf("journal must start with '%s', found '%s'", CommandCreate, command.Name)
			}
			params := &createPayload{}
			err := json.Unmarshal(command.Payload, params)
			if err != nil {
				return nil, fmt.Errorf("decode create: %w", err)
			}
			if err := ValidateCapacity(params.Capacity); err != nil {
				return nil, err
			}
			t.rows = generation.NewSync[json.RawMessage](params.Capacity)
			continue
		}

		err = t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
			return t.apply(m, command)
		})
		if err != nil {
			return nil, fmt.Errorf("replay command %d '%s': %w", n, command.Name, err)
		}
	}

	created := t.rows == nil
	if created {
		if err := ValidateCapacity(capacity); err != nil {
			return nil, err
		}
		t.rows = generation.NewSync[json.RawMessage](capacity)
	}

	// todo: investigate O_SYNC
	t.file, err = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	if created {
		err = t.persist(CommandCreate, &createPayload{Capacity: capacity})
		if err != nil {
			t.file.Close()
			return nil, err
		}
	}

	return t, nil
}

// ValidateCapacity reports whether a table can be created with capacity slots.
func ValidateCapacity(capacity int) error {
	if capacity <= 0 || uint64(capacity) > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return nil
}

func (t *Table) apply(m *generation.Map[json.RawMessage], command *Command) error {
	switch command.Name {
	case CommandPut:
		params := &putPayload{}
		if err := json.Unmarshal(command.Payload, params); err != nil {
			return err
		}
		h, err := t.insert(m, params.Document)
		if err != nil {
			return err
		}
		if h != params.Handle {
			return fmt.Errorf("%w: expected %s, got %s", ErrJournalDiverged, params.Handle, h)
		}
	case CommandRemove:
		params := &removePayload{}
		if err := json.Unmarshal(command.Payload, params); err != nil {
			return err
		}
		_, err := t.remove(m, params.Handle)
		return err
	case CommandPatch:
		params := &patchPayload{}
		if err := json.Unmarshal(command.Payload, params); err != nil {
			return err
		}
		_, _, err := t.patch(m, params.Handle, params.Diff)
		return err
	case CommandIndex:
		params := &indexPayload{}
		if err := json.Unmarshal(command.Payload, params); err != nil {
			return err
		}
		return t.createIndex(m, params.Name, params.Options)
	case CommandDropIndex:
		params := &dropIndexPayload{}
		if err := json.Unmarshal(command.Payload, params); err != nil {
			return err
		}
		return t.dropIndex(params.Name)
	default:
		return fmt.Errorf("unknown command '%s'", command.Name)
	}
	return nil
}

func (t *Table) persist(name string, payload any) error {
	if t.file == nil {
		return ErrTableClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json encode payload: %w", err)
	}

	command := &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Payload:   data,
	}

	err = json.NewEncoder(t.file).Encode(command)
	if err != nil {
		// memory is now ahead of the journal, refuse further writes
		t.broken = fmt.Errorf("json encode command: %w", err)
		return t.broken
	}

	return nil
}

func (t *Table) writable() error {
	if t.file == nil {
		return ErrTableClosed
	}
	return t.broken
}

func validateDocument(document json.RawMessage) error {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return ErrNotAnObject
	}
	return nil
}

// Put stores item, encoded as JSON, and returns its handle.
func (t *Table) Put(item any) (generation.Index, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return generation.Index{}, fmt.Errorf("json encode payload: %w", err)
	}
	return t.PutRaw(payload)
}

func (t *Table) PutRaw(document json.RawMessage) (generation.Index, error) {
	if err := validateDocument(document); err != nil {
		return generation.Index{}, err
	}
	document = append(json.RawMessage(nil), bytes.TrimSpace(document)...)

	var h generation.Index
	err := t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
		if err := t.writable(); err != nil {
			return err
		}

		var err error
		h, err = t.insert(m, document)
		if err != nil {
			return err
		}

		return t.persist(CommandPut, &putPayload{Handle: h, Document: document})
	})

	return h, err
}

func (t *Table) insert(m *generation.Map[json.RawMessage], document json.RawMessage) (generation.Index, error) {
	for name, index := range t.indexes {
		if err := index.Check(document); err != nil {
			return generation.Index{}, fmt.Errorf("index '%s': %w", name, err)
		}
	}

	h, err := m.Put(document)
	if err != nil {
		return h, err
	}

	t.index(h, document)

	return h, nil
}

// At returns the document behind h.
func (t *Table) At(h generation.Index) (json.RawMessage, error) {
	return t.rows.At(h)
}

// Remove frees h and returns the document it held.
func (t *Table) Remove(h generation.Index) (json.RawMessage, error) {
	var document json.RawMessage
	err := t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
		if err := t.writable(); err != nil {
			return err
		}

		var err error
		document, err = t.remove(m, h)
		if err != nil {
			return err
		}

		return t.persist(CommandRemove, &removePayload{Handle: h})
	})

	return document, err
}

func (t *Table) remove(m *generation.Map[json.RawMessage], h generation.Index) (json.RawMessage, error) {
	document, err := m.At(h)
	if err != nil {
		return nil, err
	}

	t.unindex(h, document)

	return document, m.Remove(h)
}

// Patch applies a JSON merge patch to the document behind h and returns the
// result.
func (t *Table) Patch(h generation.Index, patch any) (json.RawMessage, error) {
	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}

	var document json.RawMessage
	err = t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
		if err := t.writable(); err != nil {
			return err
		}

		newDocument, diff, err := t.patch(m, h, patchBytes)
		if err != nil {
			return err
		}
		document = newDocument

		if diff == nil {
			return nil
		}
		return t.persist(CommandPatch, &patchPayload{Handle: h, Diff: diff})
	})

	return document, err
}

// patch returns a nil diff when the document did not change.
func (t *Table) patch(m *generation.Map[json.RawMessage], h generation.Index, patch []byte) (json.RawMessage, json.RawMessage, error) {
	document, err := m.At(h)
	if err != nil {
		return nil, nil, err
	}

	newDocument, err := jsonpatch.MergePatch(document, patch)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot apply patch: %w", err)
	}
	if err := validateDocument(newDocument); err != nil {
		return nil, nil, err
	}

	diff, err := jsonpatch.CreateMergePatch(document, newDocument)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot diff: %w", err)
	}
	if bytes.Equal(bytes.TrimSpace(diff), []byte("{}")) {
		return document, nil, nil
	}

	err = t.reindex(h, document, newDocument)
	if err != nil {
		return nil, nil, err
	}

	return newDocument, diff, m.Replace(h, newDocument)
}

// Traverse visits every document in ascending position order.
func (t *Table) Traverse(f func(h generation.Index, document json.RawMessage) bool) {
	t.rows.Traverse(f)
}

func (t *Table) Count() int {
	return t.rows.Count()
}

func (t *Table) Cap() int {
	return t.rows.Cap()
}

// Free returns how many more documents fit.
func (t *Table) Free() int {
	return t.rows.Free()
}

func (t *Table) Close() error {
	return t.rows.Write(func(m *generation.Map[json.RawMessage]) error {
		if t.file == nil {
			return nil
		}
		err := t.file.Close()
		t.file = nil
		return err
	})
}

func (t *Table) Drop() error {
	err := t.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	err = os.Remove(t.Filename)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
