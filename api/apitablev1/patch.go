package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
)

type patchRequest struct {
	handleRequest
	Patch map[string]any `json:"patch"`
}

// patch applies a JSON merge patch and answers the resulting document.
func patch(ctx context.Context, input *patchRequest) (json.RawMessage, error) {

	h, err := input.handle()
	if err != nil {
		return nil, err
	}
	if input.Patch == nil {
		return nil, fmt.Errorf("%w: patch must be an object", ErrBadRequest)
	}

	t, err := tableFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return t.Patch(h, input.Patch)
}
