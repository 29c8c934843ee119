// Package trackclient submits tracks to the track API with the retry and
// conflict rules of the batch loader.
package trackclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/httpclient"
	"github.com/tansive/trackcatalog/pkg/api"
	"github.com/tidwall/gjson"
)

// SubmitStatus is the outcome of a submission that did not fail.
type SubmitStatus int

const (
	Created SubmitStatus = iota
	// AlreadyExists means the API rejected the track as a duplicate.
	AlreadyExists
)

func (s SubmitStatus) String() string {
	if s == AlreadyExists {
		return "exists"
	}
	return "created"
}

// DeleteStatus is the outcome of deleting the tracks of a genome.
type DeleteStatus int

const (
	Deleted DeleteStatus = iota
	NothingToDelete
)

// ErrNoResponse is returned when the API could not be reached on any attempt.
var ErrNoResponse = errors.New("no response from track API")

// SubmitError is a rejected submission. It is never retried.
type SubmitError struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *SubmitError) Error() string {
	msg := e.Message
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return fmt.Sprintf("error submitting track (%d): %s", e.StatusCode, msg)
}

type Client struct {
	doer       httpclient.Doer
	attempts   uint
	retryDelay time.Duration
}

type Option func(*Client)

// WithAttempts sets how many times a submission is tried when the
// connection times out.
func WithAttempts(n uint) Option {
	return func(c *Client) {
		c.attempts = n
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// New returns a client that tries each submission twice.
func New(doer httpclient.Doer, opts ...Option) *Client {
	c := &Client{
		doer:       doer,
		attempts:   2,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts == 0 {
		c.attempts = 1
	}
	return c
}

// SubmitTrack posts the payload to /track. Only a connect timeout is retried:
// any other failure may have reached the server. A 400 naming a unique
// constraint reports AlreadyExists.
func (c *Client) SubmitTrack(ctx context.Context, req *api.TrackRequest) (SubmitStatus, string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Created, "", fmt.Errorf("unable to encode track payload: %w", err)
	}
	var rsp []byte
	err = retry.Do(
		func() error {
			var err error
			rsp, _, err = c.doer.DoRequest(ctx, httpclient.RequestOptions{
				Method: http.MethodPost,
				Path:   "track",
				Body:   body,
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(httpclient.IsConnectTimeout),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Uint("attempt", n+1).Err(err).Msg("connection timed out, retrying")
		}),
	)
	if err != nil {
		if httpclient.IsConnectTimeout(err) {
			return Created, "", fmt.Errorf("%w: %v", ErrNoResponse, err)
		}
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusBadRequest && strings.Contains(httpErr.Message, "unique") {
				return AlreadyExists, "", nil
			}
			return Created, "", &SubmitError{StatusCode: httpErr.StatusCode, Message: httpErr.Message, Kind: httpErr.Kind}
		}
		return Created, "", err
	}
	return Created, gjson.GetBytes(rsp, "track_id").String(), nil
}

// DeleteGenomeTracks removes every track of the genome. A genome without
// tracks is not an error.
func (c *Client) DeleteGenomeTracks(ctx context.Context, genomeID string) (DeleteStatus, error) {
	_, _, err := c.doer.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodDelete,
		Path:   "genomes/" + genomeID + "/tracks",
	})
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return NothingToDelete, nil
		}
		return Deleted, fmt.Errorf("could not delete tracks for %s: %w", genomeID, err)
	}
	return Deleted, nil
}

// RegisterTypes posts type definitions to /types and returns the names the
// API stored.
func (c *Client) RegisterTypes(ctx context.Context, defs []api.TypeDefinition) ([]string, error) {
	body, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("unable to encode type definitions: %w", err)
	}
	rsp, _, err := c.doer.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodPost,
		Path:   "types",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, n := range gjson.GetBytes(rsp, "registered").Array() {
		names = append(names, n.String())
	}
	return names, nil
}
