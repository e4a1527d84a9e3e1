package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/fullform/pkg/adapters/memory"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(memory.NewStore())
	t.Cleanup(mgr.Shutdown)
	_, err := mgr.Open(context.Background(), domain.Payload{
		SessionID: "s1",
		SeqID:     1,
		Title:     "Survey",
		Tree: []domain.Descriptor{
			{Type: domain.NodeTypeQuestion, Ix: "0", Caption: "Name", Datatype: domain.DatatypeString},
			{Type: domain.NodeTypeQuestion, Ix: "1", Caption: "Pets", Datatype: domain.DatatypeMultiSelect, Choices: []string{"cat", "dog"}},
			{Type: domain.NodeTypeQuestion, Ix: "2", Caption: "Age", Datatype: domain.DatatypeInt},
		},
	})
	require.NoError(t, err)
	return NewServer(mgr), mgr
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListSessions(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleListSessions(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `["s1"]`, resultText(res))
}

func TestGetTree(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tree, err := s.handleGetTree(ctx, makeReq(nil), map[string]interface{}{"session_id": "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", tree.SessionID)
	assert.Equal(t, 1, tree.SeqID)
	assert.Len(t, tree.Tree, 3)
	assert.True(t, tree.Valid)
	assert.Empty(t, tree.Errors)

	_, err = s.handleGetTree(ctx, makeReq(nil), map[string]interface{}{"session_id": "nope"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAnswerQuestion(t *testing.T) {
	s, mgr := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleAnswerQuestion(ctx, makeReq(map[string]interface{}{
		"session_id": "s1", "ix": "1", "answer": "cat, dog",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(res))

	form, err := mgr.Get(ctx, "s1")
	require.NoError(t, err)
	q, err := form.Question("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, q.Answer())

	t.Run("invalid answer is kept but reported", func(t *testing.T) {
		res, err := s.handleAnswerQuestion(ctx, makeReq(map[string]interface{}{
			"session_id": "s1", "ix": "2", "answer": "old",
		}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid")
	})

	t.Run("unknown question", func(t *testing.T) {
		res, err := s.handleAnswerQuestion(ctx, makeReq(map[string]interface{}{
			"session_id": "s1", "ix": "9", "answer": "x",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("missing arguments", func(t *testing.T) {
		res, err := s.handleAnswerQuestion(ctx, makeReq(map[string]interface{}{"answer": "x"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestApplyResponse(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tree, err := s.handleApplyResponse(ctx, makeReq(nil), map[string]interface{}{
		"session_id": "s1",
		"response":   `{"seq_id": 2, "errors": {"2": "Too old"}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tree.SeqID)
	assert.False(t, tree.Valid)
	assert.Equal(t, map[string]string{"2": "Too old"}, tree.Errors)

	tree, err = s.handleApplyResponse(ctx, makeReq(nil), map[string]interface{}{
		"session_id": "s1",
		"response":   `{"seq_id": 3, "tree": [{"type": "question", "ix": "0", "caption": "Name", "datatype": "str"}]}`,
	})
	require.NoError(t, err)
	assert.Len(t, tree.Tree, 1)
	assert.True(t, tree.Valid)

	_, err = s.handleApplyResponse(ctx, makeReq(nil), map[string]interface{}{
		"session_id": "s1",
		"response":   `not json`,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestSessionsResource(t *testing.T) {
	s, _ := newTestServer(t)
	contents, err := s.readSessions(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, SessionsURI, text.URI)

	var summaries []sessionSummary
	require.NoError(t, json.Unmarshal([]byte(text.Text), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, sessionSummary{SessionID: "s1", Title: "Survey", SeqID: 1, Questions: 3}, summaries[0])
}
