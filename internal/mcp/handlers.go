package mcp

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ascod-toast-classifier/internal/domain"
)

// handleClassify handles the classify_stroke_etiology tool invocation
func (s *Server) handleClassify(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.classify(ctx, req.Params.Arguments), nil
}

// handleEncode handles the encode_clinical_record tool invocation
func (s *Server) handleEncode(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.encode(req.Params.Arguments), nil
}

// handleGetRulebook handles the get_rulebook tool invocation
func (s *Server) handleGetRulebook(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", ToolGetRulebook).Info("Tool invoked")
	return s.jsonResult(domain.NewRulebookResponse(), false), nil
}

func (s *Server) classify(ctx context.Context, args json.RawMessage) *mcp.CallToolResult {
	s.logger.WithField("tool", ToolClassify).Info("Tool invoked")

	payload, err := decodeArguments(args)
	if err != nil {
		return s.errorResult(err)
	}

	result, err := s.analyzer.Analyze(ctx, payload)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(domain.NewAnalyzeResponse(result), false)
}

func (s *Server) encode(args json.RawMessage) *mcp.CallToolResult {
	s.logger.WithField("tool", ToolEncode).Info("Tool invoked")

	payload, err := decodeArguments(args)
	if err != nil {
		return s.errorResult(err)
	}

	text, err := s.analyzer.Encode(payload)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(domain.EncodeResponse{
		Success:       true,
		ClinicalText:  text,
		SchemaVersion: s.registry.Version(),
	}, false)
}

// decodeArguments reads tool arguments as a JSON object. Absent arguments
// are an empty object.
func decodeArguments(args json.RawMessage) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]interface{}{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, domain.NewValidationError("", "tool arguments must be a JSON object", nil)
	}
	return payload, nil
}

// errorResult reports a pipeline failure as a tool error carrying the same
// body as the HTTP failure response.
func (s *Server) errorResult(err error) *mcp.CallToolResult {
	resp := domain.NewErrorResponse(err)
	s.logger.WithFields(logrus.Fields{
		"code":  resp.Code,
		"error": err.Error(),
	}).Warn("Tool call failed")
	return s.jsonResult(resp, true)
}

func (s *Server) jsonResult(body interface{}, isError bool) *mcp.CallToolResult {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode tool result")
		data = []byte(`{"success":false,"error":"internal server error","code":"` + domain.ErrCodeInternal + `"}`)
		isError = true
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: isError,
	}
}
