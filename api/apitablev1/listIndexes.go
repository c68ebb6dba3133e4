package apitablev1

import (
	"context"
	"encoding/json"

	"github.com/fulldump/genmap/table"
	"github.com/fulldump/genmap/utils"
)

type listIndexesItem struct {
	Name    string              `json:"name"`
	Options *table.IndexOptions `json:"options"`
}

// MarshalJSON flattens the options next to the name.
func (l *listIndexesItem) MarshalJSON() ([]byte, error) {

	result := map[string]interface{}{}
	err := utils.Remarshal(l.Options, &result)
	if err != nil {
		return nil, err
	}
	result["name"] = l.Name

	return json.Marshal(result)
}

func listIndexes(ctx context.Context) ([]*listIndexesItem, error) {

	t, err := tableFromContext(ctx)
	if err != nil {
		return nil, err
	}

	indexes := t.Indexes()

	result := []*listIndexesItem{}
	for _, name := range utils.GetKeys(indexes) {
		result = append(result, &listIndexesItem{
			Name:    name,
			Options: indexes[name],
		})
	}

	return result, nil
}
