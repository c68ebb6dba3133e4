package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fulldump/genmap/generation"
	"github.com/fulldump/genmap/table"
	"github.com/fulldump/genmap/utils"
)

type findRequest struct {
	Mode string `json:"mode"`
	table.FindOptions

	// index mode
	Index   string         `json:"index"`
	Value   any            `json:"value"`
	From    map[string]any `json:"from"`
	To      map[string]any `json:"to"`
	Reverse bool           `json:"reverse"`
}

type findResponse struct {
	Handle   generation.Index `json:"handle"`
	Document json.RawMessage  `json:"document"`
}

// find answers one {handle, document} line per match. Limit defaults to 1.
func find(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	input := &findRequest{
		Mode: "fullscan",
		FindOptions: table.FindOptions{
			Limit: 1,
		},
	}
	if len(requestBody) > 0 {
		err = json.Unmarshal(requestBody, input)
		if err != nil {
			return err
		}
	}
	if input.Index != "" && input.Mode == "fullscan" {
		input.Mode = "index"
	}

	f, exist := findModes[input.Mode]
	if !exist {
		return fmt.Errorf("%w: bad mode '%s', must be [%s]", ErrBadRequest, input.Mode, strings.Join(utils.GetKeys(findModes), "|"))
	}

	t, err := tableFromContext(ctx)
	if err != nil {
		return err
	}

	return f(input, t, w)
}

var findModes = map[string]func(input *findRequest, t *table.Table, w http.ResponseWriter) error{
	"fullscan": func(input *findRequest, t *table.Table, w http.ResponseWriter) error {
		return t.Find(input.FindOptions, writeRow(w))
	},
	"index": func(input *findRequest, t *table.Table, w http.ResponseWriter) error {
		if input.Index == "" {
			return fmt.Errorf("%w: index is required", ErrBadRequest)
		}
		traverseOptions, err := json.Marshal(map[string]any{
			"value":   input.Value,
			"from":    input.From,
			"to":      input.To,
			"reverse": input.Reverse,
		})
		if err != nil {
			return fmt.Errorf("marshal traverse options: %w", err)
		}
		return t.FindIndex(input.Index, traverseOptions, input.FindOptions, writeRow(w))
	},
}

func writeRow(w http.ResponseWriter) func(h generation.Index, document json.RawMessage) bool {
	e := json.NewEncoder(w)
	return func(h generation.Index, document json.RawMessage) bool {
		return e.Encode(&findResponse{Handle: h, Document: document}) == nil
	}
}
