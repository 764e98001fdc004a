package mcp_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/route"
	"github.com/bankrag/bankrag/pkg/service/mcp"
	"github.com/bankrag/bankrag/pkg/usecase/ask"
	"github.com/m-mizutani/gt"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type mockRetriever struct{}

func (m *mockRetriever) Search(ctx context.Context, query string, k int, scope model.Category) ([]*model.Fragment, error) {
	return []*model.Fragment{{Text: "Audit is scheduled for March."}}, nil
}

type mockGenerator struct {
	err error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "The internal audit is scheduled for March.", nil
}

func connect(t *testing.T, s *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()
	srv := httptest.NewServer(s.HTTPHandler())
	t.Cleanup(srv.Close)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &mcpsdk.StreamableClientTransport{Endpoint: srv.URL}, nil)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	gt.A(t, result.Content).Length(1)
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	return text.Text
}

func TestServerTools(t *testing.T) {
	table := route.DefaultTable()
	uc := ask.New(table, &mockRetriever{}, &mockGenerator{})
	session := connect(t, mcp.NewServer(uc, table, "test"))
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	gt.NoError(t, err)
	gt.A(t, tools.Tools).Length(2)

	t.Run("ask answers knowledge question", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
			Name:      "ask_bank_assistant",
			Arguments: map[string]any{"question": "When is the internal audit scheduled?"},
		})
		gt.NoError(t, err)
		gt.False(t, result.IsError)
		gt.Equal(t, textOf(t, result), "The internal audit is scheduled for March.")
	})

	t.Run("ask declines action", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
			Name:      "ask_bank_assistant",
			Arguments: map[string]any{"question": "send a birthday wish to customer"},
		})
		gt.NoError(t, err)
		gt.Equal(t, textOf(t, result), ask.ActionDisabledMessage)
	})

	t.Run("route", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
			Name:      "route_query",
			Arguments: map[string]any{"question": "CBN compliance rules"},
		})
		gt.NoError(t, err)
		gt.S(t, textOf(t, result)).Contains("intent: KNOWLEDGE")
		gt.S(t, textOf(t, result)).Contains("scope: regulation")
	})
}

func TestServerReportsFailure(t *testing.T) {
	table := route.DefaultTable()
	uc := ask.New(table, &mockRetriever{}, &mockGenerator{err: errors.New("model unreachable")})
	session := connect(t, mcp.NewServer(uc, table, "test"))

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "ask_bank_assistant",
		Arguments: map[string]any{"question": "What is the loan policy?"},
	})
	gt.NoError(t, err)
	gt.True(t, result.IsError)
	gt.S(t, textOf(t, result)).Contains("model unreachable")
}
