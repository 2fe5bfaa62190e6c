package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"filefinder/internal/metrics"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// Handler exposes a Backend over the same contract HTTPClient speaks.
func Handler(b Backend, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &host{backend: b, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc(invokePath, h.invoke)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type host struct {
	backend Backend
	logger  *zap.Logger
}

func (h *host) invoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	command := strings.TrimPrefix(r.URL.Path, invokePath)
	start := time.Now()
	ctx := r.Context()

	var (
		result interface{}
		err    error
		status = http.StatusOK
	)

	switch command {
	case CmdGetDisks:
		var list DiskList
		list, err = h.backend.GetDisks(ctx)
		if list == nil {
			list = DiskList{}
		}
		result = list

	case CmdSearchForFile:
		var req SearchRequest
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		var hits []SearchResult
		hits, err = h.backend.SearchForFile(ctx, req)
		if hits == nil {
			hits = []SearchResult{}
		}
		if err == nil {
			metrics.RecordSearchResults(len(hits))
		}
		result = hits

	case CmdShowInExplorer:
		var req RevealRequest
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		err = h.backend.ShowInExplorer(ctx, req.Path)
		status = http.StatusNoContent

	default:
		err = ErrUnknownCommand
	}

	if !errors.Is(err, ErrUnknownCommand) {
		metrics.RecordCommand(command, time.Since(start), err == nil)
	}

	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrUnknownCommand) {
			code = http.StatusNotFound
		}
		h.logger.Warn("command failed",
			zap.String("command", command),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		writeJSON(w, code, errorResponse{Error: err.Error()})
		return
	}

	h.logger.Debug("command served",
		zap.String("command", command),
		zap.Duration("elapsed", time.Since(start)))

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
