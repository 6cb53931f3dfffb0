// Package gateway is the client's persistence boundary: a REST client for
// the chat backend wrapped with a write-through local cache, so reads and
// writes degrade to local state when the backend is unreachable.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"lingochat/internal/models"
)

// RemoteClient talks to the backend's message REST API.
type RemoteClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewRemoteClient(baseURL, token string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type postMessageRequest struct {
	Content        string     `json:"content"`
	Language       string     `json:"language,omitempty"`
	IsAnnouncement bool       `json:"is_announcement"`
	ReplyTo        *uuid.UUID `json:"reply_to,omitempty"`
}

type messageListResponse struct {
	Messages []models.Message `json:"messages"`
}

// PostMessage inserts a message and returns the server-assigned record.
func (c *RemoteClient) PostMessage(ctx context.Context, draft *models.Message) (*models.Message, error) {
	body, err := json.Marshal(postMessageRequest{
		Content:        draft.Content,
		Language:       draft.Language,
		IsAnnouncement: draft.IsAnnouncement,
		ReplyTo:        draft.ReplyTo,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/rooms/%s/messages", c.baseURL, draft.RoomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("post message: unexpected status %d", resp.StatusCode)
	}

	var record models.Message
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

// MessagesSince returns room messages with created_at strictly after since.
func (c *RemoteClient) MessagesSince(ctx context.Context, roomID uuid.UUID, since time.Time) ([]models.Message, error) {
	query := url.Values{"since": {since.Format(time.RFC3339Nano)}}
	return c.getMessages(ctx, roomID, query)
}

// RecentMessages returns the newest limit messages in chronological order.
func (c *RemoteClient) RecentMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	query := url.Values{"limit": {fmt.Sprintf("%d", limit)}}
	return c.getMessages(ctx, roomID, query)
}

func (c *RemoteClient) getMessages(ctx context.Context, roomID uuid.UUID, query url.Values) ([]models.Message, error) {
	endpoint := fmt.Sprintf("%s/api/v1/rooms/%s/messages?%s", c.baseURL, roomID, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("get messages: unexpected status %d", resp.StatusCode)
	}

	var list messageListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}

	return list.Messages, nil
}
