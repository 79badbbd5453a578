// Package mcpadapter exposes the policy question answering use case as
// Model Context Protocol tools served over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

const (
	serverName    = "policyqa"
	serverVersion = "1.0.0"

	toolAnswerQuestions = "answer_policy_questions"
	toolQueryPolicy     = "query_policy"
)

var ErrMissingAnswerer = errors.New("mcp: document answerer is required")

type Server struct {
	docs   ports.DocumentQuestionAnswerer
	server *server.MCPServer
}

func NewServer(docs ports.DocumentQuestionAnswerer) (*Server, error) {
	if docs == nil {
		return nil, ErrMissingAnswerer
	}
	s := &Server{
		docs: docs,
		server: server.NewMCPServer(
			serverName,
			serverVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s, nil
}

// Run serves JSON-RPC over the given streams until ctx is cancelled or in closes.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool(toolAnswerQuestions,
		mcp.WithDescription("Answer questions about an insurance policy PDF. Answers are returned in question order."),
		mcp.WithString("documents",
			mcp.Required(),
			mcp.Description("HTTP(S) URL of the policy PDF"),
		),
		mcp.WithArray("questions",
			mcp.Required(),
			mcp.Description("Questions to answer"),
			mcp.WithStringItems(),
		),
	), s.handleAnswerQuestions)

	s.server.AddTool(mcp.NewTool(toolQueryPolicy,
		mcp.WithDescription("Answer one question about a policy PDF with source sections, confidence and, for claim scenarios, a coverage decision."),
		mcp.WithString("documents",
			mcp.Required(),
			mcp.Description("HTTP(S) URL of the policy PDF"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question or claim scenario, e.g. \"46M, knee surgery, Pune, 3-month policy\""),
		),
	), s.handleQueryPolicy)
}

type answersOutput struct {
	Answers []string `json:"answers"`
}

func (s *Server) handleAnswerQuestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	questions := nonEmpty(req.GetStringSlice("questions", nil))
	if len(questions) == 0 {
		return mcp.NewToolResultError("questions must contain at least one question"), nil
	}

	answers, err := s.docs.AnswerDocumentQuestions(ctx, url, questions)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("answer policy questions", err), nil
	}
	return jsonResult(answersOutput{Answers: answers})
}

func (s *Server) handleQueryPolicy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docs.AnswerDocumentQuery(ctx, url, question)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("query policy", err), nil
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
