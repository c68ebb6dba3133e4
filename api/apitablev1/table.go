package apitablev1

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulldump/box"

	"github.com/fulldump/genmap/generation"
	"github.com/fulldump/genmap/table"
)

var ErrBadRequest = errors.New("bad request")

type TableResponse struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Capacity int    `json:"capacity"`
	Indexes  int    `json:"indexes"`
}

func newTableResponse(name string, t *table.Table) *TableResponse {
	return &TableResponse{
		Name:     name,
		Count:    t.Count(),
		Capacity: t.Cap(),
		Indexes:  len(t.Indexes()),
	}
}

func tableFromContext(ctx context.Context) (*table.Table, error) {
	tableName := box.GetUrlParameter(ctx, "tableName")
	return GetServicer(ctx).GetTable(tableName)
}

type handleRequest struct {
	Handle *generation.Index `json:"handle"`
}

func (r *handleRequest) handle() (generation.Index, error) {
	if r == nil || r.Handle == nil {
		return generation.Index{}, fmt.Errorf("%w: handle is required", ErrBadRequest)
	}
	return *r.Handle, nil
}
