// Package mcp exposes question answering and passage lookup to MCP clients
// such as desktop assistants, over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrMissingService is returned when no question service is provided.
var ErrMissingService = errors.New("mcp: question service is required")

// QuestionService answers questions and looks up passages.
type QuestionService interface {
	Ask(ctx context.Context, question string) (*models.Answer, error)
	Passages(ctx context.Context, q models.PassageQuery) (*models.PassageResponse, error)
}

// Catalog lists indexed documents and their chunks.
type Catalog interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	ListChunks(ctx context.Context, source string) ([]models.Chunk, error)
}

// Ports aggregates what the MCP server drives. Catalog is optional; without
// it no document resources are registered.
type Ports struct {
	Service QuestionService
	Catalog Catalog
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Service == nil {
		return ErrMissingService
	}
	return nil
}

// Server is the MCP server for kotae.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates an MCP server reporting version.
func NewServer(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "kotae", Version: version}, nil),
	}
	s.registerTools()
	if ports.Catalog != nil {
		s.registerResources()
	}
	return s, nil
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
