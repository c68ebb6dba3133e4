package apitablev1

import (
	"context"
	"net/http"
)

type createTableRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func createTable(ctx context.Context, w http.ResponseWriter, input *createTableRequest) (*TableResponse, error) {

	t, err := GetServicer(ctx).CreateTable(input.Name, input.Capacity)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return newTableResponse(input.Name, t), nil
}
