package apitablev1

import (
	"context"
)

type countResponse struct {
	Count    int `json:"count"`
	Capacity int `json:"capacity"`
	Free     int `json:"free"`
}

func count(ctx context.Context) (*countResponse, error) {

	t, err := tableFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return &countResponse{
		Count:    t.Count(),
		Capacity: t.Cap(),
		Free:     t.Free(),
	}, nil
}
