package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aretw0/fullform/pkg/displayopts"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/go-chi/chi/v5"
)

func optionsKey(r *http.Request) string {
	return displayopts.Key(chi.URLParam(r, "env"), chi.URLParam(r, "domain"), chi.URLParam(r, "user"))
}

// GetDisplayOptions handles GET /display-options/{env}/{domain}/{user}.
func (s *Server) GetDisplayOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Options.Load(r.Context(), optionsKey(r))
	if err != nil {
		s.fail(w, "GetDisplayOptions", err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// SaveDisplayOptions handles PUT /display-options/{env}/{domain}/{user}.
func (s *Server) SaveDisplayOptions(w http.ResponseWriter, r *http.Request) {
	var opts domain.DisplayOptions
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&opts); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.Options.Save(r.Context(), optionsKey(r), opts); err != nil {
		s.fail(w, "SaveDisplayOptions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDisplayOptions handles DELETE /display-options/{env}/{domain}/{user}.
func (s *Server) DeleteDisplayOptions(w http.ResponseWriter, r *http.Request) {
	if err := s.Options.Delete(r.Context(), optionsKey(r)); err != nil {
		s.fail(w, "DeleteDisplayOptions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
