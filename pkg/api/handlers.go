package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/format"
)

// keyParam returns the unescaped {key} URL parameter. chi matches against
// r.URL.RawPath when it is set and against the already unescaped r.URL.Path
// otherwise, so the parameter is unescaped only in the first case.
func keyParam(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath != "" {
		var err error
		if key, err = url.PathUnescape(key); err != nil {
			return "", fmt.Errorf("invalid key encoding: %w", err)
		}
	}
	if key == "" {
		return "", errors.New("key is required")
	}
	return key, nil
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API and the open document
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	path, entries := s.doc.Path, s.doc.Len()
	s.mu.Unlock()

	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"path":    path,
		"entries": entries,
	})
}

// handleList godoc
//
//	@Summary		List entries
//	@Description	List every entry, or the entries whose key or value contains q (case-insensitive)
//	@Tags			entries
//	@Produce		json
//	@Param			q	query		string	false	"Search text"
//	@Success		200	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/entries [get]
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	s.mu.Lock()
	matches := s.doc.Search(r.URL.Query().Get("q"))
	s.mu.Unlock()

	entries := make([]EntryResponse, len(matches))
	for i, m := range matches {
		entries[i] = newEntryResponse(m)
	}

	s.metrics.RecordDocOperation("search", true, time.Since(start))
	sendSuccess(w, entries)
}

// handleGet godoc
//
//	@Summary		Get an entry
//	@Description	Get the first entry with the given key
//	@Tags			entries
//	@Produce		json
//	@Param			key	path		string	true	"Key"
//	@Success		200	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/entries/{key} [get]
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := keyParam(r)
	if err != nil {
		s.metrics.RecordDocOperation("get", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	i := s.doc.IndexOf(key)
	var entry codec.Entry
	if i >= 0 {
		entry = s.doc.Entries[i]
	}
	s.mu.Unlock()

	if i < 0 {
		s.metrics.RecordDocOperation("get", false, time.Since(start))
		sendError(w, "Key not found", http.StatusNotFound)
		return
	}

	s.metrics.RecordDocOperation("get", true, time.Since(start))
	sendSuccess(w, newEntryResponse(document.Match{Row: i + 1, Entry: entry}))
}

// handlePut godoc
//
//	@Summary		Set an entry
//	@Description	Update the value of the first entry with the key, or append a new entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string			true	"Key"
//	@Param			body	body		SetEntryRequest	true	"Value"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/entries/{key} [put]
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := keyParam(r)
	if err != nil {
		s.metrics.RecordDocOperation("set", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req SetEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.RecordDocOperation("set", false, time.Since(start))
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	entry := codec.NewEntry(key, req.Value)
	if err := codec.CheckEntry(entry); err != nil {
		s.metrics.RecordDocOperation("set", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	added := s.doc.Set(key, req.Value)
	row := s.doc.IndexOf(key) + 1
	s.metrics.UpdateDocStats(s.doc.Len())
	s.mu.Unlock()

	s.logger.Debug("Set entry", zap.String("key", key), zap.Bool("added", added))
	s.metrics.RecordDocOperation("set", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{
		"entry": newEntryResponse(document.Match{Row: row, Entry: entry}),
		"added": added,
	})
}

// handleDelete godoc
//
//	@Summary		Delete an entry
//	@Description	Remove the first entry with the given key
//	@Tags			entries
//	@Produce		json
//	@Param			key	path		string	true	"Key"
//	@Success		200	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/entries/{key} [delete]
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := keyParam(r)
	if err != nil {
		s.metrics.RecordDocOperation("delete", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	found := s.doc.Delete(key)
	s.metrics.UpdateDocStats(s.doc.Len())
	s.mu.Unlock()

	if !found {
		s.metrics.RecordDocOperation("delete", false, time.Since(start))
		sendError(w, "Key not found", http.StatusNotFound)
		return
	}

	s.metrics.RecordDocOperation("delete", true, time.Since(start))
	sendSuccess(w, map[string]string{"message": "Entry deleted successfully"})
}

// handleMove godoc
//
//	@Summary		Move an entry
//	@Description	Shift the first entry with the key by the given number of rows
//	@Tags			entries
//	@Produce		json
//	@Param			key	path		string	true	"Key"
//	@Param			by	query		int		true	"Rows to move, negative moves up"
//	@Success		200	{object}	APIResponse
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/entries/{key}/move [post]
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := keyParam(r)
	if err != nil {
		s.metrics.RecordDocOperation("move", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	delta, err := strconv.Atoi(r.URL.Query().Get("by"))
	if err != nil {
		s.metrics.RecordDocOperation("move", false, time.Since(start))
		sendError(w, "by must be an integer", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.doc.IndexOf(key)
	if i < 0 {
		s.metrics.RecordDocOperation("move", false, time.Since(start))
		sendError(w, "Key not found", http.StatusNotFound)
		return
	}

	newIndex, err := s.doc.Move(i, delta)
	if err != nil {
		s.metrics.RecordDocOperation("move", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.metrics.RecordDocOperation("move", true, time.Since(start))
	sendSuccess(w, newEntryResponse(document.Match{Row: newIndex + 1, Entry: s.doc.Entries[newIndex]}))
}

// handleSave godoc
//
//	@Summary		Save the document
//	@Description	Write the document to its file. Oversized entries are skipped and reported.
//	@Tags			document
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Failure		400	{object}	APIResponse
//	@Failure		409	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/save [post]
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.doc.Save("")
	if err != nil {
		s.metrics.RecordDocOperation("save", false, time.Since(start))

		var dupErr *document.DuplicateKeysError
		switch {
		case errors.As(err, &dupErr):
			sendError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, document.ErrEmpty), errors.Is(err, document.ErrNoPath):
			sendError(w, err.Error(), http.StatusBadRequest)
		default:
			s.logger.Error("Failed to save document", zap.Error(err))
			sendError(w, "Failed to save document", http.StatusInternalServerError)
		}
		return
	}

	resp := newSaveResponse(s.doc.Path, report)
	if s.history != nil {
		snap, err := s.history.PutFile(s.doc.Path)
		if err != nil {
			s.logger.Warn("Failed to record history snapshot", zap.String("path", s.doc.Path), zap.Error(err))
		} else {
			resp.Snapshot = snap.ID.String()
		}
	}

	s.metrics.RecordSkipped(len(report.Skipped))
	s.metrics.RecordDocOperation("save", true, time.Since(start))
	sendSuccess(w, resp)
}

// handleExport godoc
//
//	@Summary		Export the document
//	@Description	Encode the document in the requested format without saving it
//	@Tags			document
//	@Produce		octet-stream,json
//	@Param			format	query	string	false	"bsf, json, yaml or msgpack"	default(bsf)
//	@Success		200
//	@Failure		400	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/export [get]
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(format.BSF)
	}
	f, err := format.Parse(name)
	if err != nil {
		s.metrics.RecordDocOperation("export", false, time.Since(start))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	s.mu.Lock()
	report, err := s.doc.Encode(&buf, f)
	path := s.doc.Path
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordDocOperation("export", false, time.Since(start))
		s.logger.Error("Failed to export document", zap.Error(err))
		sendError(w, "Failed to export document", http.StatusInternalServerError)
		return
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if base == "" || base == "." {
		base = "strings"
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"."+string(f)))
	w.Header().Set("X-Skipped-Entries", strconv.Itoa(len(report.Skipped)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	s.metrics.RecordDocOperation("export", true, time.Since(start))
}
