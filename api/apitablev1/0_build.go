package apitablev1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/genmap/service"
)

func BuildV1Table(v1 *box.R, s service.Servicer) *box.R {

	tables := v1.Resource("/tables").
		WithActions(
			box.Get(listTables).WithName("listTables"),
			box.Post(createTable).WithName("createTable"),
		)

	v1.Resource("/tables/{tableName}").
		WithActions(
			box.Get(getTable).WithName("getTable"),
			box.ActionPost(insert).WithName("insert"),
			box.ActionPost(get).WithName("get"),
			box.ActionPost(remove).WithName("remove"),
			box.ActionPost(patch).WithName("patch"),
			box.ActionPost(find).WithName("find"),
			box.ActionPost(count).WithName("count"),
			box.ActionPost(dropTable).WithName("dropTable"),
			box.ActionPost(listIndexes).WithName("listIndexes"),
			box.ActionPost(createIndex).WithName("createIndex"),
			box.ActionPost(dropIndex).WithName("dropIndex"),
		)

	return tables
}
