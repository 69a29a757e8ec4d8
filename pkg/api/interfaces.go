// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/history"
)

// Snapshotter records a copy of a file after it is saved
type Snapshotter interface {
	PutFile(path string) (history.Snapshot, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves doc until ctx is cancelled
	StartServer(ctx context.Context, doc *document.Document, config ServerConfig, opts ...Option) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
