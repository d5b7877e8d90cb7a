// Package server exposes extraction runs over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/stylerank/batch"
	"github.com/jsphweid/stylerank/chart"
	"github.com/jsphweid/stylerank/feature"
	"github.com/jsphweid/stylerank/logger"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/rank"
	"github.com/jsphweid/stylerank/store"
	"github.com/jsphweid/stylerank/util"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	store *store.Store
	// base is copied for every run; requests override selection fields.
	base   batch.Options
	router *mux.Router
}

func New(st *store.Store, base batch.Options) *Server {
	s := &Server{store: st, base: base}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/runs", s.handleCreateRun).Methods("POST")
	router.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	router.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	router.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")
	router.HandleFunc("/runs/{id}/features/{name}", s.handleGetFeature).Methods("GET")
	router.HandleFunc("/runs/{id}/features/{name}/chart", s.handleFeatureChart).Methods("GET")
	router.HandleFunc("/feature-names", s.handleFeatureNames).Methods("GET")
	router.HandleFunc("/rank", s.handleRank).Methods("POST")
	s.router = router
	return s
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) ListenAndServe(addr string) error {
	logger := logger.GetProjectLogger()
	logger.Infof("Listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetProjectLogger().Warnf("Could not encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeStoreError maps lookup failures to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	logger.GetProjectLogger().Errorf("Store failure: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// outsideMedia returns the first path resolving outside the media
// directory. Any path is allowed when no media directory is configured.
func (s *Server) outsideMedia(paths ...[]string) (string, bool) {
	if s.base.MediaDir == "" {
		return "", false
	}
	for _, list := range paths {
		for _, p := range list {
			if !util.WithinDir(s.base.MediaDir, p) {
				return p, true
			}
		}
	}
	return "", false
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not decode request body: "+err.Error())
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "paths must not be empty")
		return
	}
	if p, ok := s.outsideMedia(req.Paths); ok {
		writeError(w, http.StatusBadRequest, "path outside the media directory: "+p)
		return
	}

	opts := s.base
	opts.FeatureNames = req.FeatureNames
	if req.Tag != "" {
		opts.Tag = req.Tag
	}
	if req.UpperBound > 0 {
		opts.UpperBound = req.UpperBound
	}
	if req.Resolution > 0 {
		opts.Resolution = req.Resolution
	}

	out, err := batch.GetFeatures(r.Context(), req.Paths, opts)
	if err != nil {
		if errors.Is(err, feature.ErrUnknownFeature) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.GetProjectLogger().Errorf("Run failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := s.store.SaveRun(r.Context(), req.Paths, opts.UpperBound, out.Result)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"run":     summary.ID,
		"pieces":  len(out.Indices),
		"skipped": len(out.Skipped),
	}).Info("Saved run")
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req model.RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not decode request body: "+err.Error())
		return
	}
	if len(req.Candidates) == 0 || len(req.Corpus) == 0 {
		writeError(w, http.StatusBadRequest, "candidates and corpus must not be empty")
		return
	}
	if p, ok := s.outsideMedia(req.Candidates, req.Corpus); ok {
		writeError(w, http.StatusBadRequest, "path outside the media directory: "+p)
		return
	}

	opts := rank.DefaultOptions()
	opts.Batch = s.base
	opts.Batch.FeatureNames = req.FeatureNames
	if req.Tag != "" {
		opts.Batch.Tag = req.Tag
	}
	if req.UpperBound > 0 {
		opts.Batch.UpperBound = req.UpperBound
	}
	if req.Trees > 0 {
		opts.Forest.Trees = req.Trees
	}
	if req.MaxDepth > 0 {
		opts.Forest.MaxDepth = req.MaxDepth
	}
	if req.Seed != 0 {
		opts.Forest.Seed = req.Seed
	}

	res, err := rank.Rank(r.Context(), req.Candidates, req.Corpus, opts)
	if err != nil {
		if errors.Is(err, feature.ErrUnknownFeature) || errors.Is(err, rank.ErrNoCandidates) || errors.Is(err, rank.ErrNoCorpus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.GetProjectLogger().Errorf("Rank failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRun(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fd, err := s.store.GetFeature(r.Context(), vars["id"], vars["name"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.FeatureResponse{
		RunID:  vars["id"],
		Name:   vars["name"],
		Domain: fd.Domain,
		Matrix: fd.Matrix,
		Width:  fd.Width(),
	})
}

func (s *Server) handleFeatureChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fd, err := s.store.GetFeature(r.Context(), vars["id"], vars["name"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.WriteHTML(w, vars["name"], fd); err != nil {
		logger.GetProjectLogger().Errorf("Could not render chart: %v", err)
	}
}

func (s *Server) handleFeatureNames(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	names := batch.GetFeatureNames(tag)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, model.FeatureNamesResponse{Tag: tag, Names: names})
}
