package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ryanlong1004/lucida-flow/errutil"
	"github.com/ryanlong1004/lucida-flow/lucida"
)

type searchRequest struct {
	Query   string `json:"query"`
	Service string `json:"service"`
	Limit   int    `json:"limit"`
}

type infoRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL     string `json:"url"`
	OutPath string `json:"out_path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const defaultSearchLimit = 20

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}
	if req.Service == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "service is required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	res, err := s.client.Search(r.Context(), req.Query, req.Service, req.Limit)
	if nil != err {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req infoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	track, err := s.client.TrackInfo(r.Context(), req.URL)
	if nil != err {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	res, err := s.client.Download(r.Context(), req.URL, req.OutPath)
	if nil != err {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if match, ok := errutil.IsAny(err,
		lucida.ErrUnknownService,
		lucida.ErrRateLimited,
		lucida.ErrTransient,
		lucida.ErrMalformed,
		lucida.ErrNoDownloadLink,
	); ok {
		switch match {
		case lucida.ErrUnknownService:
			status = http.StatusBadRequest
		case lucida.ErrRateLimited:
			status = http.StatusTooManyRequests
		case lucida.ErrTransient, lucida.ErrMalformed:
			status = http.StatusBadGateway
		case lucida.ErrNoDownloadLink:
			status = http.StatusNotFound
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); nil != err {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
