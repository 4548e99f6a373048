// Package client is a Go client for the FanVerse conversation API. Send,
// edit, delete and react calls are optimistic: each one registers a pending
// operation under a fresh client_ref, and the ref travels with the request
// so websocket listeners can match the confirmed record back to the
// placeholder they rendered.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fanverse-service/internal/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the service's envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running fanverse-service instance.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	outbox     *outbox
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		outbox:     newOutbox(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, typically after Login.
func (c *Client) SetToken(token string) { c.token = token }

// PendingCount reports how many optimistic operations are still awaiting a
// server verdict.
func (c *Client) PendingCount() int { return c.outbox.len() }

// PendingOp looks up an in-flight operation by its client ref.
func (c *Client) PendingOp(ref string) (PendingOp, bool) { return c.outbox.get(ref) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &result); err != nil {
		return LoginResult{}, err
	}
	c.token = result.Token
	return result, nil
}

// LoginResult is the login response payload.
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID             int    `json:"id"`
		Email          string `json:"email"`
		HasPreferences bool   `json:"hasPreferences"`
	} `json:"user"`
}

// ResolveConversation returns the one conversation between the two users,
// creating it on first contact.
func (c *Client) ResolveConversation(ctx context.Context, user1ID, user2ID int) (ResolvedConversation, error) {
	var result ResolvedConversation
	body := map[string]int{"user1_id": user1ID, "user2_id": user2ID}
	err := c.do(ctx, http.MethodPost, "/api/conversations", body, &result)
	return result, err
}

// ResolvedConversation pairs the conversation record with whether the call
// created it.
type ResolvedConversation struct {
	Conversation struct {
		models.ConversationDetail
		Participants []int `json:"participants"`
	} `json:"conversation"`
	IsNew bool `json:"isNew"`
}

// Conversations lists the conversations visible to a user, most recently
// active first.
func (c *Client) Conversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	var result []models.ConversationSummary
	err := c.do(ctx, http.MethodGet, "/api/conversations/"+strconv.Itoa(userID), nil, &result)
	return result, err
}

// LeaveConversation marks the user's side of the conversation deleted.
// The returned flag is true when the other side had already left and the
// row was purged.
func (c *Client) LeaveConversation(ctx context.Context, conversationID, userID int) (bool, error) {
	var result struct {
		Removed bool `json:"removed"`
	}
	path := fmt.Sprintf("/api/conversations/%d/user/%d", conversationID, userID)
	err := c.do(ctx, http.MethodDelete, path, nil, &result)
	return result.Removed, err
}

// MessagePage is one page of a conversation's history.
type MessagePage struct {
	Messages   []models.MessageWithSender `json:"messages"`
	Pagination struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"hasMore"`
	} `json:"pagination"`
}

// Messages fetches a page of a conversation's history, oldest first.
func (c *Client) Messages(ctx context.Context, conversationID, limit, offset int) (MessagePage, error) {
	var result MessagePage
	path := fmt.Sprintf("/api/messages/%d?%s", conversationID, url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}.Encode())
	err := c.do(ctx, http.MethodGet, path, nil, &result)
	return result, err
}

// SentMessage is the confirmed record for an optimistic send.
type SentMessage struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversationId"`
	SenderID       int       `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	ClientRef      string    `json:"client_ref"`
}

// SendMessage posts a message optimistically. A pending op is registered
// before the request goes out; a 2xx confirms it with the server id, any
// failure marks it failed and then removes it, whichever way the request
// died.
func (c *Client) SendMessage(ctx context.Context, conversationID, senderID int, content string) (SentMessage, error) {
	ref := uuid.NewString()
	c.outbox.add(ref, "message")

	body := map[string]any{
		"conversation_id": conversationID,
		"sender_id":       senderID,
		"content":         content,
		"client_ref":      ref,
	}
	var result SentMessage
	if err := c.do(ctx, http.MethodPost, "/api/messages", body, &result); err != nil {
		c.outbox.fail(ref, err)
		return SentMessage{}, err
	}
	c.outbox.confirm(ref, result.ID)
	return result, nil
}

// EditMessage replaces a message's content, sender-gated on the server.
func (c *Client) EditMessage(ctx context.Context, messageID, senderID int, content string) (models.MessageWithSender, error) {
	ref := uuid.NewString()
	c.outbox.add(ref, "edit")

	body := map[string]any{
		"content":    content,
		"sender_id":  senderID,
		"client_ref": ref,
	}
	var result models.MessageWithSender
	if err := c.do(ctx, http.MethodPut, "/api/messages/"+strconv.Itoa(messageID), body, &result); err != nil {
		c.outbox.fail(ref, err)
		return models.MessageWithSender{}, err
	}
	c.outbox.confirm(ref, result.ID)
	return result, nil
}

// DeleteMessage removes a message, sender-gated on the server.
func (c *Client) DeleteMessage(ctx context.Context, messageID, senderID int) error {
	ref := uuid.NewString()
	c.outbox.add(ref, "delete")

	body := map[string]any{
		"sender_id":  senderID,
		"client_ref": ref,
	}
	if err := c.do(ctx, http.MethodDelete, "/api/messages/"+strconv.Itoa(messageID), body, nil); err != nil {
		c.outbox.fail(ref, err)
		return err
	}
	c.outbox.confirm(ref, messageID)
	return nil
}

// React sets the user's reaction on a message. The server keeps one
// reaction per user per message, so a different emoji replaces the old one.
func (c *Client) React(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error) {
	ref := uuid.NewString()
	c.outbox.add(ref, "reaction")

	body := map[string]any{
		"userId":     userID,
		"emoji":      emoji,
		"client_ref": ref,
	}
	var result models.Reaction
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/messages/%d/reactions", messageID), body, &result); err != nil {
		c.outbox.fail(ref, err)
		return models.Reaction{}, err
	}
	c.outbox.confirm(ref, result.ID)
	return result, nil
}

// RemoveReaction clears the user's reaction. Succeeds even when none exists.
func (c *Client) RemoveReaction(ctx context.Context, messageID, userID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/messages/%d/reactions/%d", messageID, userID), nil, nil)
}

// ToggleReaction applies the tap-an-emoji gesture: tapping the emoji the
// user already has removes it, tapping a different one replaces it. current
// is the user's present reaction, empty when they have none.
func (c *Client) ToggleReaction(ctx context.Context, messageID, userID int, emoji, current string) (*models.Reaction, error) {
	if current == emoji {
		if err := c.RemoveReaction(ctx, messageID, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	reaction, err := c.React(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Reactions lists a message's reactions with reactor display info.
func (c *Client) Reactions(ctx context.Context, messageID int) ([]models.ReactionWithUser, error) {
	var result []models.ReactionWithUser
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/messages/%d/reactions", messageID), nil, &result)
	return result, err
}
