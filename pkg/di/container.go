// Package di provides dependency injection container
package di

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ssargent/bsfedit/pkg/api" //nolint:depguard
	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/config"
	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/history"
	"github.com/ssargent/bsfedit/pkg/logging"
)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *zap.Logger
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container with the default
// configuration and a no-op logger
func NewContainer() *Container {
	return &Container{
		config:        config.DefaultConfig(),
		logger:        zap.NewNop(),
		serverFactory: api.NewServerFactory(),
	}
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// SetConfig replaces the active configuration
func (c *Container) SetConfig(cfg *config.Config) {
	c.config = cfg
}

// Logger returns the application logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// SetLogger replaces the application logger
func (c *Container) SetLogger(l *zap.Logger) {
	c.logger = logging.OrNop(l)
}

// Codec returns a BSF codec following the codec configuration
func (c *Container) Codec() *codec.Codec {
	return codec.NewCodec(codec.WithStrict(!c.config.Codec.Lenient))
}

// NewDocument creates an empty document wired to the codec and logger
func (c *Container) NewDocument() *document.Document {
	return document.New(
		document.WithCodec(c.Codec()),
		document.WithLogger(c.logger),
	)
}

// LoadDocument opens the document at path
func (c *Container) LoadDocument(path string) (*document.Document, error) {
	d := c.NewDocument()
	if err := d.Open(path); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenHistory opens the snapshot store in the configured history directory
func (c *Container) OpenHistory() (*history.Store, error) {
	if c.config.History.Dir == "" {
		return nil, fmt.Errorf("no history dir configured")
	}
	return history.Open(c.config.History.Dir)
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
