// Package mcp exposes the classification pipeline as MCP tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/schema"
	"github.com/ascod-toast-classifier/internal/service"
)

// Tool names
const (
	ToolClassify    = "classify_stroke_etiology"
	ToolEncode      = "encode_clinical_record"
	ToolGetRulebook = "get_rulebook"
)

// Server represents the ASCOD/TOAST MCP server
type Server struct {
	mcpServer *mcp.Server
	analyzer  *service.AnalyzerService
	registry  *schema.Registry
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance with all tools registered
func NewServer(config domain.MCPConfig, analyzer *service.AnalyzerService, logger *logrus.Logger) (*Server, error) {
	registry, err := schema.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load field registry: %w", err)
	}

	name := config.ServerName
	if name == "" {
		name = "ascod-toast-classifier"
	}
	version := config.ServerVersion
	if version == "" {
		version = "1.0.0"
	}

	server := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		analyzer:  analyzer,
		registry:  registry,
		logger:    logger,
	}
	server.registerTools()

	return server, nil
}

// Start serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Start(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Run serves MCP over the given transport
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.WithField("classifier_available", s.analyzer.ClassifierAvailable()).Info("Starting MCP server")
	if err := s.mcpServer.Run(ctx, transport); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// registerTools registers the pipeline tools with the MCP SDK
func (s *Server) registerTools() {
	tools := []struct {
		tool    *mcp.Tool
		handler mcp.ToolHandler
	}{
		{
			tool: &mcp.Tool{
				Name: ToolClassify,
				Description: "Classify ischemic stroke etiology with ASCOD and TOAST. " +
					`Pass {"type":"text","text":"..."} for a free-text case or {"type":"structured", ...fields} for checklist findings.`,
				InputSchema: classifyInputSchema(s.registry),
			},
			handler: s.handleClassify,
		},
		{
			tool: &mcp.Tool{
				Name:        ToolEncode,
				Description: "Render structured stroke findings as the clinical narrative sent to the classifier, without classifying.",
				InputSchema: recordInputSchema(s.registry),
			},
			handler: s.handleEncode,
		},
		{
			tool: &mcp.Tool{
				Name:        ToolGetRulebook,
				Description: "Return the ASCOD/TOAST grading rulebook sent with every classification request.",
				InputSchema: emptyInputSchema(),
			},
			handler: s.handleGetRulebook,
		},
	}

	for _, t := range tools {
		s.mcpServer.AddTool(t.tool, t.handler)
		s.logger.WithField("tool_name", t.tool.Name).Debug("Registered MCP tool")
	}
	s.logger.WithField("tool_count", len(tools)).Info("Successfully registered all tools")
}
