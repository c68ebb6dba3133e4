package apitablev1

import (
	"context"

	"github.com/fulldump/genmap/utils"
)

func listTables(ctx context.Context) ([]*TableResponse, error) {

	tables := GetServicer(ctx).ListTables()

	result := []*TableResponse{}
	for _, name := range utils.GetKeys(tables) {
		result = append(result, newTableResponse(name, tables[name]))
	}

	return result, nil
}
