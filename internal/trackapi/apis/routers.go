// Package apis maps the track API routes onto the track manager.
package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tansive/trackcatalog/internal/common/httpx"
)

var trackHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodPost,
		Path:    "/tracks",
		Handler: createTrack,
	},
	{
		Method:  http.MethodPost,
		Path:    "/track",
		Handler: submitTrack,
	},
	{
		Method:  http.MethodPost,
		Path:    "/tracks/link",
		Handler: linkType,
	},
	{
		Method:  http.MethodGet,
		Path:    "/track/{trackId}",
		Handler: getTrack,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/track/{trackId}",
		Handler: deleteTrack,
	},
	{
		Method:  http.MethodGet,
		Path:    "/genomes/{genomeId}/tracks",
		Handler: getGenomeTracks,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/genomes/{genomeId}/tracks",
		Handler: deleteGenomeTracks,
	},
	{
		Method:  http.MethodGet,
		Path:    "/track_categories/{genomeId}",
		Handler: getGenomeTracks,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/track_categories/{genomeId}",
		Handler: deleteGenomeTracks,
	},
}

var typeHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodGet,
		Path:    "/types",
		Handler: listTypes,
	},
	{
		Method:  http.MethodPost,
		Path:    "/types",
		Handler: registerTypes,
	},
	{
		Method:  http.MethodGet,
		Path:    "/types/{typeName}",
		Handler: getType,
	},
}

// Router registers every track and type route on r.
func Router(r chi.Router) {
	for _, handler := range trackHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
	for _, handler := range typeHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}
