package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
)

// HandlerClient serves requests directly from an http.Handler without a
// network round trip. Used to drive an in-process server.
type HandlerClient struct {
	handler http.Handler
}

func NewHandlerClient(h http.Handler) *HandlerClient {
	return &HandlerClient{handler: h}
}

// DoRequest makes an HTTP request with the given options directly to the handler
func (c *HandlerClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, string, error) {
	req, err := newRequest(ctx, "http://localhost/", opts)
	if err != nil {
		return nil, "", err
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	body := rr.Body.Bytes()
	if err := checkStatus(rr.Code, body); err != nil {
		return nil, "", err
	}
	return body, rr.Header().Get("Location"), nil
}
