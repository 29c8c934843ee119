package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tansive/trackcatalog/internal/common/httpx"
	commonuuid "github.com/tansive/trackcatalog/internal/common/uuid"
	"github.com/tansive/trackcatalog/internal/trackapi/trackmanager"
	"github.com/tansive/trackcatalog/pkg/api"
)

// createTrack handles the strict form of a submission.
func createTrack(r *http.Request) (*httpx.Response, error) {
	req := &api.TrackRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	trackID, err := trackmanager.CreateTrack(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return trackCreated(trackID), nil
}

// submitTrack accepts the template form, which may carry the display fields
// and the category inline.
func submitTrack(r *http.Request) (*httpx.Response, error) {
	req := &api.TrackRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	trackID, err := trackmanager.SubmitTrack(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return trackCreated(trackID), nil
}

func trackCreated(trackID uuid.UUID) *httpx.Response {
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/track/" + trackID.String(),
		Response:   &api.CreateTrackRsp{TrackID: trackID.String()},
	}
}

func linkType(r *http.Request) (*httpx.Response, error) {
	req := &api.LinkTypeRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if msgs := api.Validate(req); len(msgs) > 0 {
		return nil, httpx.ErrInvalidRequest(msgs[0])
	}
	trackID, err := trackmanager.LinkType(r.Context(), uuid.MustParse(req.TrackID), req.TypeName)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response: &api.LinkTypeRsp{
			TrackID: trackID.String(),
			Message: trackmanager.LinkSuccessMessage,
		},
	}, nil
}

func getTrack(r *http.Request) (*httpx.Response, error) {
	trackID, ok := uuidParam(r, "trackId")
	if !ok {
		return nil, httpx.ErrInvalidTrackId()
	}
	track, err := trackmanager.GetTrack(r.Context(), trackID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   track,
	}, nil
}

func deleteTrack(r *http.Request) (*httpx.Response, error) {
	trackID, ok := uuidParam(r, "trackId")
	if !ok {
		return nil, httpx.ErrInvalidTrackId()
	}
	if err := trackmanager.DeleteTrack(r.Context(), trackID); err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusNoContent,
	}, nil
}

func getGenomeTracks(r *http.Request) (*httpx.Response, error) {
	genomeID, ok := uuidParam(r, "genomeId")
	if !ok {
		return nil, httpx.ErrInvalidGenomeId()
	}
	rsp, err := trackmanager.GetGenomeTracks(r.Context(), genomeID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
	}, nil
}

func deleteGenomeTracks(r *http.Request) (*httpx.Response, error) {
	genomeID, ok := uuidParam(r, "genomeId")
	if !ok {
		return nil, httpx.ErrInvalidGenomeId()
	}
	if err := trackmanager.DeleteGenomeTracks(r.Context(), genomeID); err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusNoContent,
	}, nil
}

// uuidParam reads a path parameter that must be a canonical UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, bool) {
	s := chi.URLParam(r, name)
	if !commonuuid.IsCanonical(s) {
		return uuid.Nil, false
	}
	return uuid.MustParse(s), true
}
