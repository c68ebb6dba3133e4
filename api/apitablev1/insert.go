package apitablev1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fulldump/box"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/genmap/generation"
)

type insertResponse struct {
	Handle generation.Index `json:"handle"`
}

// insert reads a stream of documents and answers one handle per line as soon
// as each document is stored. Missing tables are created.
//
// curl -X POST -T. http://localhost:8080/v1/tables/my-table:insert
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	tableName := box.GetUrlParameter(ctx, "tableName")
	t, err := GetServicer(ctx).GetOrCreateTable(tableName)
	if err != nil {
		return err
	}

	decoder := jsontext.NewDecoder(r.Body)
	encoder := jsontext.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	for i := 0; ; i++ {
		value, err := decoder.ReadValue()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				w.WriteHeader(http.StatusNoContent)
			}
			return nil
		}
		if err != nil {
			return err
		}

		h, err := t.PutRaw(json.RawMessage(value))
		if err != nil {
			return err
		}

		if i == 0 {
			w.WriteHeader(http.StatusCreated)
		}
		err = json2.MarshalEncode(encoder, &insertResponse{Handle: h})
		if err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
