package httpclient

import (
	"context"
)

// Doer sends a request to the track API and returns the body and the
// Location header of a successful response.
type Doer interface {
	DoRequest(ctx context.Context, opts RequestOptions) ([]byte, string, error)
}

var _ Doer = &HTTPClient{}
var _ Doer = &HandlerClient{}
