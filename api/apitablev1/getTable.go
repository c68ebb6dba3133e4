package apitablev1

import (
	"context"

	"github.com/fulldump/box"
)

func getTable(ctx context.Context) (*TableResponse, error) {

	t, err := tableFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return newTableResponse(box.GetUrlParameter(ctx, "tableName"), t), nil
}
