package apitablev1

import (
	"context"
	"net/http"
)

type dropIndexRequest struct {
	Name string `json:"name"`
}

func dropIndex(ctx context.Context, w http.ResponseWriter, input *dropIndexRequest) error {

	t, err := tableFromContext(ctx)
	if err != nil {
		return err
	}

	err = t.DropIndex(input.Name)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
