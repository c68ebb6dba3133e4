package apitablev1

import (
	"context"
	"encoding/json"
)

// remove answers the removed document.
func remove(ctx context.Context, input *handleRequest) (json.RawMessage, error) {

	h, err := input.handle()
	if err != nil {
		return nil, err
	}

	t, err := tableFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return t.Remove(h)
}
