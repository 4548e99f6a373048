package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageConfirmsPendingOp(t *testing.T) {
	var gotRef string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/messages", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRef = body["client_ref"].(string)
		require.NotEmpty(t, gotRef)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id":             7,
				"conversationId": 5,
				"senderId":       1,
				"content":        "hello",
				"client_ref":     gotRef,
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	msg, err := c.SendMessage(context.Background(), 5, 1, "hello")
	require.NoError(t, err)

	assert.Equal(t, 7, msg.ID)
	assert.Equal(t, gotRef, msg.ClientRef)
	assert.Equal(t, 0, c.PendingCount(), "confirmed op must leave the outbox")
}

func TestSendMessageFailureDrainsOutbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "You are not a participant in this conversation",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SendMessage(context.Background(), 5, 3, "hello")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "You are not a participant in this conversation", apiErr.Message)
	assert.Equal(t, 0, c.PendingCount(), "failed op must still be removed")
}

func TestSendMessageTransportFailureDrainsOutbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // server already gone, the request cannot reach it

	c := New(srv.URL)
	_, err := c.SendMessage(context.Background(), 5, 1, "hello")
	require.Error(t, err)
	assert.Equal(t, 0, c.PendingCount())
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "tok-123",
				"user":  map[string]any{"id": 5, "email": "ada@example.com", "hasPreferences": true},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", result.Token)
	assert.Equal(t, 5, result.User.ID)
	assert.True(t, result.User.HasPreferences)
	assert.Equal(t, "tok-123", c.token)
}

func TestRequestsCarryBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok-123"))
	_, err := c.Conversations(context.Background(), 1)
	require.NoError(t, err)
}

func TestToggleReactionRemovesSameEmoji(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Reaction removed"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	reaction, err := c.ToggleReaction(context.Background(), 7, 1, "🔥", "🔥")
	require.NoError(t, err)
	assert.Nil(t, reaction)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/messages/7/reactions/1", path)
}

func TestToggleReactionReplacesDifferentEmoji(t *testing.T) {
	var method, path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": 3, "message_id": 7, "user_id": 1, "emoji": "👍"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	reaction, err := c.ToggleReaction(context.Background(), 7, 1, "👍", "🔥")
	require.NoError(t, err)
	require.NotNil(t, reaction)
	assert.Equal(t, "👍", reaction.Emoji)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/messages/7/reactions", path)
	assert.Equal(t, float64(1), body["userId"])
	assert.Equal(t, 0, c.PendingCount())
}

func TestMessagesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/5", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("limit"))
		require.Equal(t, "4", r.URL.Query().Get("offset"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"messages": []map[string]any{
					{"id": 11, "conversation_id": 5, "content": "a"},
				},
				"pagination": map[string]any{"total": 6, "limit": 2, "offset": 4, "hasMore": false},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	page, err := c.Messages(context.Background(), 5, 2, 4)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, 6, page.Pagination.Total)
	assert.False(t, page.Pagination.HasMore)
}

func TestOutboxFSMTransitions(t *testing.T) {
	o := newOutbox()

	o.add("ref-1", "message")
	op, ok := o.get("ref-1")
	require.True(t, ok)
	assert.Equal(t, StatePending, op.State)

	o.confirm("ref-1", 7)
	_, ok = o.get("ref-1")
	assert.False(t, ok, "confirmed op is retired")

	o.add("ref-2", "reaction")
	o.fail("ref-2", assertError{})
	_, ok = o.get("ref-2")
	assert.False(t, ok, "failed op is removed")

	// Failing an unknown ref must not panic or strand anything.
	o.fail("ref-3", assertError{})
	assert.Equal(t, 0, o.len())
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
