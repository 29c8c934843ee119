package apis

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/internal/common/httpx"
	"github.com/tansive/trackcatalog/internal/trackapi/trackmanager"
	"github.com/tansive/trackcatalog/pkg/api"
)

func listTypes(r *http.Request) (*httpx.Response, error) {
	rsp, err := trackmanager.ListTypes(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
	}, nil
}

func getType(r *http.Request) (*httpx.Response, error) {
	name := chi.URLParam(r, "typeName")
	if name == "" {
		return nil, httpx.ErrInvalidRequest("type name is required")
	}
	t, err := trackmanager.GetType(r.Context(), name)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   t,
	}, nil
}

// registerTypes accepts a single definition, a list of definitions or a
// {"types": [...]} document.
func registerTypes(r *http.Request) (*httpx.Response, error) {
	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	defs, err := decodeTypeDefinitions(body)
	if err != nil {
		log.Ctx(r.Context()).Info().Err(err).Msg("unable to decode type definitions")
		return nil, httpx.ErrUnableToParseReqData()
	}
	names, apperr := trackmanager.RegisterTypes(r.Context(), defs)
	if apperr != nil {
		return nil, apperr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   &api.RegisterTypesRsp{Registered: names},
	}, nil
}

func decodeTypeDefinitions(body []byte) ([]api.TypeDefinition, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var defs []api.TypeDefinition
		err := json.Unmarshal(body, &defs)
		return defs, err
	}
	var doc struct {
		Types []api.TypeDefinition `json:"types"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Types != nil {
		return doc.Types, nil
	}
	var def api.TypeDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, err
	}
	return []api.TypeDefinition{def}, nil
}
