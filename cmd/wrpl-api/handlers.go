package main

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/engine/manager"
	"WrplSpectra/internal/engine/protocol"
	"WrplSpectra/internal/storage"
	"WrplSpectra/internal/transport"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"google.golang.org/protobuf/encoding/protojson"
)

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	processor      manager.Processor
	querier        storage.Querier
	maxUploadBytes int64
}

// Router registers the API routes.
func (h *APIHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthHandler).Methods("GET")
	r.HandleFunc("/api/v1/replays/parse", h.parseReplayHandler).Methods("POST")
	r.HandleFunc("/api/v1/replays", h.listReplaysHandler).Methods("GET")
	r.HandleFunc("/api/v1/replays/{sessionId}", h.getReplayHandler).Methods("GET")
	return r
}

func (h *APIHandler) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// parseReplayHandler decodes an uploaded replay without storing it. With
// ?view=summary the protobuf summary is returned as JSON.
func (h *APIHandler) parseReplayHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.wrpl"
	}

	rec, err := h.processor.Process(r.Context(), name, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, protocol.ErrInvalidMagic), errors.Is(err, protocol.ErrTruncatedHeader):
			status = http.StatusBadRequest
		case blk.IsFatal(err):
			status = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("failed to parse replay: %v", err), status)
		return
	}

	if r.URL.Query().Get("view") == "summary" {
		summary, err := transport.Summary(rec)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to build summary: %v", err), http.StatusInternalServerError)
			return
		}
		jsonBytes, err := protojson.Marshal(summary)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonBytes)
		return
	}

	writeJSON(w, rec)
}

func (h *APIHandler) listReplaysHandler(w http.ResponseWriter, r *http.Request) {
	if h.querier == nil {
		http.Error(w, "replay storage is not configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	filter := storage.ListFilter{
		Level:      q.Get("level"),
		Difficulty: q.Get("difficulty"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid limit: %v", err), http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	replays, err := h.querier.ListReplays(r.Context(), filter)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query replays: %v", err), http.StatusInternalServerError)
		return
	}
	if replays == nil {
		replays = []storage.ReplaySummary{}
	}
	writeJSON(w, replays)
}

func (h *APIHandler) getReplayHandler(w http.ResponseWriter, r *http.Request) {
	if h.querier == nil {
		http.Error(w, "replay storage is not configured", http.StatusServiceUnavailable)
		return
	}

	sessionID := mux.Vars(r)["sessionId"]
	replay, players, err := h.querier.GetReplay(r.Context(), sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, fmt.Sprintf("replay %s not found", sessionID), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query replay: %v", err), http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []storage.PlayerSummary{}
	}

	writeJSON(w, struct {
		*storage.ReplaySummary
		Players []storage.PlayerSummary `json:"players"`
	}{replay, players})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
