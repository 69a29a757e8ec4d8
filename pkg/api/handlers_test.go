package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/history"
)

func setupTestServer(t *testing.T, opts ...Option) (*Server, *document.Document) {
	t.Helper()

	doc := document.New()
	doc.Path = filepath.Join(t.TempDir(), "strings.bsf")
	doc.Entries = []codec.Entry{
		codec.NewEntry("menu.start", "Start Race"),
		codec.NewEntry("menu.quit", "Quit"),
		codec.NewEntry("hud.lap", "LAP"),
	}

	return NewServer(doc, ServerConfig{}, opts...), doc
}

func doRequest(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return APIResponse{Success: raw.Success, Error: raw.Error}
}

func TestServer_handleHealth(t *testing.T) {
	s, doc := setupTestServer(t)

	w := doRequest(t, s, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]interface{}
	resp := decodeResponse(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, doc.Path, data["path"])
	assert.EqualValues(t, 3, data["entries"])
}

func TestServer_handleList(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantKeys []string
		wantRows []int
	}{
		{name: "all", query: "", wantKeys: []string{"menu.start", "menu.quit", "hud.lap"}, wantRows: []int{1, 2, 3}},
		{name: "value match ignores case", query: "?q=race", wantKeys: []string{"menu.start"}, wantRows: []int{1}},
		{name: "key match", query: "?q=HUD", wantKeys: []string{"hud.lap"}, wantRows: []int{3}},
		{name: "no match", query: "?q=nothing", wantKeys: []string{}, wantRows: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupTestServer(t)

			w := doRequest(t, s, "GET", "/api/v1/entries"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var entries []EntryResponse
			decodeResponse(t, w, &entries)

			keys := []string{}
			rows := []int{}
			for _, e := range entries {
				keys = append(keys, e.Key)
				rows = append(rows, e.Row)
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantRows, rows)
		})
	}
}

func TestServer_handleGet(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		expectedStatus int
		expectedValue  string
		expectedRow    int
	}{
		{name: "existing key", key: "menu.quit", expectedStatus: http.StatusOK, expectedValue: "Quit", expectedRow: 2},
		{name: "missing key", key: "nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupTestServer(t)

			w := doRequest(t, s, "GET", "/api/v1/entries/"+tt.key, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var entry EntryResponse
			resp := decodeResponse(t, w, &entry)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				assert.Equal(t, "Key not found", resp.Error)
				return
			}
			assert.Equal(t, tt.key, entry.Key)
			assert.Equal(t, tt.expectedValue, entry.Value)
			assert.Equal(t, tt.expectedRow, entry.Row)
		})
	}
}

func TestServer_handleGetEscapedKey(t *testing.T) {
	keys := []string{"path/with slash", "100%", "a%41", "x/50%", "a/b"}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			s, doc := setupTestServer(t)
			doc.Set("aA", "decoy")
			doc.Set(key, "v")

			w := doRequest(t, s, "GET", "/api/v1/entries/"+url.PathEscape(key), nil)
			require.Equal(t, http.StatusOK, w.Code)

			var entry EntryResponse
			decodeResponse(t, w, &entry)
			assert.Equal(t, key, entry.Key)
			assert.Equal(t, "v", entry.Value)
		})
	}
}

func TestServer_escapedKeyEdits(t *testing.T) {
	s, doc := setupTestServer(t)
	doc.Set("aA", "decoy")
	key := "a%41"

	w := doRequest(t, s, "PUT", "/api/v1/entries/"+url.PathEscape(key), []byte(`{"value":"set"}`))
	require.Equal(t, http.StatusOK, w.Code)
	e, ok := doc.Get(key)
	require.True(t, ok)
	assert.Equal(t, "set", e.Value.String())

	w = doRequest(t, s, "POST", "/api/v1/entries/"+url.PathEscape(key)+"/move?by=-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, doc.IndexOf(key))

	w = doRequest(t, s, "DELETE", "/api/v1/entries/"+url.PathEscape(key), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = doc.Get(key)
	assert.False(t, ok)
	decoy, ok := doc.Get("aA")
	require.True(t, ok)
	assert.Equal(t, "decoy", decoy.Value.String())
}

func TestServer_handlePut(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		body           string
		expectedStatus int
		expectedAdded  bool
		expectedLen    int
	}{
		{name: "update existing", key: "menu.quit", body: `{"value":"Exit"}`, expectedStatus: http.StatusOK, expectedLen: 3},
		{name: "append new", key: "menu.options", body: `{"value":"Options"}`, expectedStatus: http.StatusOK, expectedAdded: true, expectedLen: 4},
		{name: "invalid json", key: "menu.quit", body: `{`, expectedStatus: http.StatusBadRequest, expectedLen: 3},
		{name: "key too long", key: strings.Repeat("k", 256), body: `{"value":"v"}`, expectedStatus: http.StatusBadRequest, expectedLen: 3},
		{name: "value too long", key: "big", body: `{"value":"` + strings.Repeat("v", 32768) + `"}`, expectedStatus: http.StatusBadRequest, expectedLen: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, doc := setupTestServer(t)

			w := doRequest(t, s, "PUT", "/api/v1/entries/"+tt.key, []byte(tt.body))
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedLen, doc.Len())

			var data struct {
				Entry EntryResponse `json:"entry"`
				Added bool          `json:"added"`
			}
			resp := decodeResponse(t, w, &data)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				return
			}
			assert.Equal(t, tt.expectedAdded, data.Added)
			assert.Equal(t, tt.key, data.Entry.Key)

			e, ok := doc.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, data.Entry.Value, e.Value.String())
		})
	}
}

func TestServer_handleDelete(t *testing.T) {
	s, doc := setupTestServer(t)

	w := doRequest(t, s, "DELETE", "/api/v1/entries/menu.start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, doc.IndexOf("menu.start"))
	assert.Equal(t, 2, doc.Len())

	w = doRequest(t, s, "DELETE", "/api/v1/entries/menu.start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_handleMove(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		by             string
		expectedStatus int
		expectedRow    int
		expectedOrder  []string
	}{
		{name: "down one", key: "menu.start", by: "1", expectedStatus: http.StatusOK, expectedRow: 2,
			expectedOrder: []string{"menu.quit", "menu.start", "hud.lap"}},
		{name: "up two", key: "hud.lap", by: "-2", expectedStatus: http.StatusOK, expectedRow: 1,
			expectedOrder: []string{"hud.lap", "menu.start", "menu.quit"}},
		{name: "past end", key: "hud.lap", by: "1", expectedStatus: http.StatusBadRequest,
			expectedOrder: []string{"menu.start", "menu.quit", "hud.lap"}},
		{name: "not a number", key: "hud.lap", by: "x", expectedStatus: http.StatusBadRequest,
			expectedOrder: []string{"menu.start", "menu.quit", "hud.lap"}},
		{name: "unknown key", key: "nope", by: "1", expectedStatus: http.StatusNotFound,
			expectedOrder: []string{"menu.start", "menu.quit", "hud.lap"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, doc := setupTestServer(t)

			w := doRequest(t, s, "POST", "/api/v1/entries/"+tt.key+"/move?by="+tt.by, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			order := make([]string, 0, doc.Len())
			for _, e := range doc.Entries {
				order = append(order, e.Key.String())
			}
			assert.Equal(t, tt.expectedOrder, order)

			if tt.expectedStatus == http.StatusOK {
				var entry EntryResponse
				decodeResponse(t, w, &entry)
				assert.Equal(t, tt.expectedRow, entry.Row)
				assert.Equal(t, tt.key, entry.Key)
			}
		})
	}
}

type fakeSnapshotter struct {
	paths []string
	err   error
}

func (f *fakeSnapshotter) PutFile(path string) (history.Snapshot, error) {
	if f.err != nil {
		return history.Snapshot{}, f.err
	}
	f.paths = append(f.paths, path)
	return history.Snapshot{ID: ksuid.New(), Name: path}, nil
}

func TestServer_handleSave(t *testing.T) {
	snaps := &fakeSnapshotter{}
	s, doc := setupTestServer(t, WithSnapshotter(snaps))
	doc.Set("big", strings.Repeat("v", 40000))

	w := doRequest(t, s, "POST", "/api/v1/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var saved SaveResponse
	resp := decodeResponse(t, w, &saved)
	assert.True(t, resp.Success)
	assert.Equal(t, doc.Path, saved.Path)
	assert.Equal(t, 3, saved.Written)
	require.Len(t, saved.Skipped, 1)
	assert.Equal(t, "big", saved.Skipped[0].Key)
	assert.Equal(t, 4, saved.Skipped[0].Row)
	assert.NotEmpty(t, saved.Snapshot)
	assert.Equal(t, []string{doc.Path}, snaps.paths)

	loaded, err := document.Load(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
}

func TestServer_handleSaveSnapshotFailureIsNotFatal(t *testing.T) {
	s, doc := setupTestServer(t, WithSnapshotter(&fakeSnapshotter{err: errors.New("disk full")}))

	w := doRequest(t, s, "POST", "/api/v1/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var saved SaveResponse
	decodeResponse(t, w, &saved)
	assert.Empty(t, saved.Snapshot)
	assert.FileExists(t, doc.Path)
}

func TestServer_handleSaveErrors(t *testing.T) {
	t.Run("duplicate keys", func(t *testing.T) {
		s, doc := setupTestServer(t)
		doc.Entries = append(doc.Entries, codec.NewEntry("menu.quit", "again"))

		w := doRequest(t, s, "POST", "/api/v1/save", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w, nil)
		assert.Contains(t, resp.Error, "menu.quit")
		assert.NoFileExists(t, doc.Path)
	})

	t.Run("empty document", func(t *testing.T) {
		s, doc := setupTestServer(t)
		doc.Entries = nil

		w := doRequest(t, s, "POST", "/api/v1/save", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("write failure", func(t *testing.T) {
		s, doc := setupTestServer(t)
		doc.Path = filepath.Join(t.TempDir(), "missing", "strings.bsf")

		w := doRequest(t, s, "POST", "/api/v1/save", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestServer_handleExport(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		expectedStatus int
		expectedType   string
		expectedPrefix string
	}{
		{name: "default is bsf", format: "", expectedStatus: http.StatusOK, expectedType: "application/octet-stream", expectedPrefix: "BZBT"},
		{name: "json", format: "json", expectedStatus: http.StatusOK, expectedType: "application/json", expectedPrefix: "{\n  \"menu.start\": \"Start Race\""},
		{name: "yaml", format: "yaml", expectedStatus: http.StatusOK, expectedType: "application/yaml", expectedPrefix: "menu.start: Start Race"},
		{name: "msgpack", format: "msgpack", expectedStatus: http.StatusOK, expectedType: "application/msgpack", expectedPrefix: "\x83"},
		{name: "unknown", format: "csv", expectedStatus: http.StatusBadRequest, expectedType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, doc := setupTestServer(t)

			target := "/api/v1/export"
			if tt.format != "" {
				target += "?format=" + tt.format
			}
			w := doRequest(t, s, "GET", target, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedType, w.Header().Get("Content-Type"))
			if tt.expectedStatus != http.StatusOK {
				return
			}
			assert.True(t, strings.HasPrefix(w.Body.String(), tt.expectedPrefix), "body: %q", w.Body.String())
			assert.Equal(t, "0", w.Header().Get("X-Skipped-Entries"))
			assert.NoFileExists(t, doc.Path)
		})
	}
}

func TestServer_handleExportMatchesSave(t *testing.T) {
	s, doc := setupTestServer(t)

	w := doRequest(t, s, "GET", "/api/v1/export?format=bsf", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := doc.Save("")
	require.NoError(t, err)
	onDisk, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, onDisk, w.Body.Bytes())
}
