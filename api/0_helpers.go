package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/genmap/api/apitablev1"
	"github.com/fulldump/genmap/database"
	"github.com/fulldump/genmap/generation"
	"github.com/fulldump/genmap/service"
	"github.com/fulldump/genmap/table"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("temporary unavailable")
	ErrRateLimited  = errors.New("too many requests")
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening {
				box.SetError(ctx, fmt.Errorf("%w: opening", ErrUnavailable))
				return
			}
			if status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: closing", ErrUnavailable))
				return
			}
			next(ctx)
		}
	}
}

type errorStatus struct {
	err         error
	status      int
	description string
}

// First match wins.
var errorStatuses = []errorStatus{
	{ErrUnauthorized, http.StatusUnauthorized, "user is not authenticated"},
	{ErrUnavailable, http.StatusServiceUnavailable, "try again later"},
	{ErrRateLimited, http.StatusTooManyRequests, "request rate exceeded"},
	{generation.ErrStaleHandle, http.StatusGone, "handle refers to a removed document"},
	{generation.ErrOutOfRange, http.StatusBadRequest, "handle position is out of range"},
	{generation.ErrMalformedIndex, http.StatusBadRequest, "handle must look like 'position.generation'"},
	{generation.ErrCapacityExceeded, http.StatusInsufficientStorage, "table is full"},
	{table.ErrNotAnObject, http.StatusBadRequest, "documents must be JSON objects"},
	{table.ErrInvalidCapacity, http.StatusBadRequest, "capacity must be positive"},
	{table.ErrIndexNotFound, http.StatusNotFound, "index not found"},
	{table.ErrIndexAlreadyExists, http.StatusConflict, "index already exists"},
	{table.ErrIndexConflict, http.StatusConflict, "unique index conflict"},
	{service.ErrorTableNotFound, http.StatusNotFound, "table not found"},
	{service.ErrorTableAlreadyExists, http.StatusConflict, "table already exists"},
	{service.ErrorCapacityTooLarge, http.StatusBadRequest, "capacity above the configured maximum"},
	{database.ErrInvalidName, http.StatusBadRequest, "invalid table name"},
	{apitablev1.ErrBadRequest, http.StatusBadRequest, "bad request"},
	{io.EOF, http.StatusBadRequest, "request body is required"},
	{io.ErrUnexpectedEOF, http.StatusBadRequest, "request body is truncated"},
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		writeError := func(status int, description string) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"message":     err.Error(),
					"description": description,
				},
			})
		}

		if err == box.ErrResourceNotFound {
			writeError(http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String()))
			return
		}

		if err == box.ErrMethodNotAllowed {
			writeError(http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method))
			return
		}

		for _, e := range errorStatuses {
			if errors.Is(err, e.err) {
				writeError(e.status, e.description)
				return
			}
		}

		var syntaxError *json.SyntaxError
		var typeError *json.UnmarshalTypeError
		var syntacticError *jsontext.SyntacticError
		if errors.As(err, &syntaxError) || errors.As(err, &typeError) || errors.As(err, &syntacticError) {
			writeError(http.StatusBadRequest, "Malformed JSON")
			return
		}

		writeError(http.StatusInternalServerError, "Unexpected error")
	}
}
