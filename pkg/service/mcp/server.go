package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler answers one query
type Handler interface {
	Handle(ctx context.Context, query string) *model.Outcome
}

// Server exposes the assistant as MCP tools
type Server struct {
	server  *mcp.Server
	handler Handler
	router  interfaces.Router
}

type askParams struct {
	Question string `json:"question" jsonschema:"Question about bank policies, regulations or internal memos"`
}

type routeParams struct {
	Question string `json:"question" jsonschema:"Question to classify"`
}

// NewServer creates an MCP server with the ask_bank_assistant and route_query tools
func NewServer(handler Handler, router interfaces.Router, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "bankrag",
			Version: version,
		}, nil),
		handler: handler,
		router:  router,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_bank_assistant",
		Description: "Answer a question using only the bank knowledge base (policies, regulations, internal memos)",
	}, s.ask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "route_query",
		Description: "Show how a question is routed: intent (KNOWLEDGE, DATA, ACTION) and document category filter",
	}, s.route)

	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "failed to run MCP server")
	}
	return nil
}

// HTTPHandler serves the streamable HTTP transport
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) ask(ctx context.Context, req *mcp.CallToolRequest, params *askParams) (*mcp.CallToolResult, any, error) {
	question := strings.TrimSpace(params.Question)
	if question == "" {
		return nil, nil, goerr.New("question is required")
	}

	outcome := s.handler.Handle(ctx, question)
	logging.From(ctx).Debug("mcp ask handled", "query_id", outcome.ID, "kind", outcome.Kind)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: outcome.Text()},
		},
		IsError: outcome.Failed(),
	}, nil, nil
}

func (s *Server) route(ctx context.Context, req *mcp.CallToolRequest, params *routeParams) (*mcp.CallToolResult, any, error) {
	r := s.router.Route(ctx, params.Question)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("intent: %s\nscope: %s", r.Intent, r.Scope)},
		},
	}, nil, nil
}
