package api

import (
	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/document"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // Empty disables authentication
}

// EntryResponse is one entry with its 1-based row number
type EntryResponse struct {
	Row   int    `json:"row"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SetEntryRequest is the body of PUT /entries/{key}
type SetEntryRequest struct {
	Value string `json:"value"`
}

// SkippedResponse describes an entry left out of a saved file
type SkippedResponse struct {
	Row    int    `json:"row"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// SaveResponse reports the outcome of POST /save
type SaveResponse struct {
	Path     string            `json:"path"`
	Written  int               `json:"written"`
	Bytes    int64             `json:"bytes"`
	Skipped  []SkippedResponse `json:"skipped"`
	Snapshot string            `json:"snapshot,omitempty"`
}

func newEntryResponse(m document.Match) EntryResponse {
	return EntryResponse{
		Row:   m.Row,
		Key:   m.Entry.Key.String(),
		Value: m.Entry.Value.String(),
	}
}

func newSaveResponse(path string, report *codec.EncodeReport) SaveResponse {
	resp := SaveResponse{
		Path:    path,
		Written: report.Written,
		Bytes:   report.Bytes,
		Skipped: make([]SkippedResponse, 0, len(report.Skipped)),
	}
	for _, s := range report.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedResponse{
			Row:    s.Index + 1,
			Key:    s.Key.String(),
			Reason: s.Reason.Error(),
		})
	}
	return resp
}
