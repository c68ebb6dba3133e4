package apitablev1

import (
	"context"

	"github.com/fulldump/box"
)

func dropTable(ctx context.Context) error {

	tableName := box.GetUrlParameter(ctx, "tableName")

	return GetServicer(ctx).DeleteTable(tableName)
}
