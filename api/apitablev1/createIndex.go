package apitablev1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/genmap/table"
)

type createIndexRequest struct {
	Name string `json:"name"`
	table.IndexOptions
}

func createIndex(ctx context.Context, w http.ResponseWriter, input *createIndexRequest) (*listIndexesItem, error) {

	if input.Name == "" {
		return nil, fmt.Errorf("%w: index name is required", ErrBadRequest)
	}

	t, err := tableFromContext(ctx)
	if err != nil {
		return nil, err
	}

	options := input.IndexOptions
	err = t.CreateIndex(input.Name, &options)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)

	return &listIndexesItem{
		Name:    input.Name,
		Options: &options,
	}, nil
}
