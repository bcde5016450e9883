// Package server exposes the backend HTTP API: registration and lookup of
// podcast records plus on-demand signed URLs for segment bundles. The
// permanent storage locator never appears in any response; clients only ever
// see short-lived signed URLs.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/registry"
	"podcast-pipeline/pkg/store"

	"github.com/gorilla/mux"
)

// Server holds the API dependencies and routes.
type Server struct {
	registry registry.Store
	signer   *store.Signer
	router   *mux.Router
}

// New builds the server and registers its routes. The signer may be backed
// by a nil object store when storage credentials are absent; signing
// endpoints then answer 503 while registry endpoints keep working.
func New(reg registry.Store, signer *store.Signer) *Server {
	s := &Server{
		registry: reg,
		signer:   signer,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/podcast/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/podcast/ids", s.handleIDs).Methods(http.MethodGet)
	s.router.HandleFunc("/podcast/detail/{id}", s.handleDetail).Methods(http.MethodGet)
	s.router.HandleFunc("/podcast/segments-url/{id}", s.handleSegmentsURL).Methods(http.MethodGet)

	return s
}

// Router returns the configured handler for mounting.
func (s *Server) Router() http.Handler {
	return s.router
}

type registerRequest struct {
	Episode domain.Episode         `json:"episode"`
	Stored  domain.StoredObjectRef `json:"stored"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Episode.ID == "" {
		writeError(w, http.StatusBadRequest, "episode id is required")
		return
	}
	if req.Stored.Key == "" {
		writeError(w, http.StatusBadRequest, "stored key is required")
		return
	}

	record := &domain.PodcastRecord{
		Episode:      req.Episode,
		Stored:       req.Stored,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.registry.Upsert(r.Context(), record); err != nil {
		log.Printf("register episode %s: %v", req.Episode.ID, err)
		writeError(w, http.StatusInternalServerError, "could not store record")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": req.Episode.ID})
}

func (s *Server) handleIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.registry.ListIDs(r.Context())
	if err != nil {
		log.Printf("list episode ids: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list records")
		return
	}
	if ids == nil {
		ids = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// detailPodcast is the public view of a record: episode metadata, the bundle
// key and a freshly-signed temporary URL. No locator.
type detailPodcast struct {
	domain.Episode
	RegisteredAt             time.Time `json:"registeredAt"`
	SegmentsKey              string    `json:"segmentsKey"`
	SegmentsTempURL          string    `json:"segmentsTempURL"`
	SegmentsTempURLExpiresIn int       `json:"segmentsTempURLExpiresIn"`
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := s.registry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "podcast not found")
			return
		}
		log.Printf("get episode %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "could not load record")
		return
	}

	ttl := store.ClampTTL(expiresParam(r))
	signed, err := s.signer.Issue(r.Context(), record.Stored.Key, ttl)
	if err != nil {
		writeSigningError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]detailPodcast{"podcast": {
		Episode:                  record.Episode,
		RegisteredAt:             record.RegisteredAt,
		SegmentsKey:              record.Stored.Key,
		SegmentsTempURL:          signed.URL,
		SegmentsTempURLExpiresIn: ttl,
	}})
}

type segmentsURLResponse struct {
	URL       string    `json:"url"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleSegmentsURL(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := s.registry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "podcast not found")
			return
		}
		log.Printf("get episode %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "could not load record")
		return
	}

	ttl := store.ClampTTL(expiresParam(r))
	signed, err := s.signer.Issue(r.Context(), record.Stored.Key, ttl)
	if err != nil {
		writeSigningError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, segmentsURLResponse{
		URL:       signed.URL,
		ExpiresIn: ttl,
		ExpiresAt: signed.ExpiresAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// expiresParam reads the requested TTL in seconds. Absent or malformed
// values come back as 0, which ClampTTL maps to the default.
func expiresParam(r *http.Request) int {
	raw := r.URL.Query().Get("expires")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return seconds
}

func writeSigningError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, store.ErrSignerNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "signed urls are not available")
		return
	}
	log.Printf("sign url for episode %s: %v", id, err)
	writeError(w, http.StatusInternalServerError, "could not sign url")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
