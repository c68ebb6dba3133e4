package table

import (
	"encoding/json"

	"github.com/fulldump/genmap/generation"
)

const (
	CommandCreate    = "create"
	CommandPut       = "put"
	CommandRemove    = "remove"
	CommandPatch     = "patch"
	CommandIndex     = "index"
	CommandDropIndex = "dropIndex"
)

// Command is one line of the journal.
type Command struct {
	Name      string          `json:"name"`
	Uuid      string          `json:"uuid"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type createPayload struct {
	Capacity int `json:"capacity"`
}

type putPayload struct {
	Handle   generation.Index `json:"handle"`
	Document json.RawMessage  `json:"document"`
}

type removePayload struct {
	Handle generation.Index `json:"handle"`
}

type patchPayload struct {
	Handle generation.Index `json:"handle"`
	Diff   json.RawMessage  `json:"diff"`
}

type indexPayload struct {
	Name    string        `json:"name"`
	Options *IndexOptions `json:"options"`
}

type dropIndexPayload struct {
	Name string `json:"name"`
}
