// Package discord is the chat-platform collaborator: a thin REST client for
// the two verbs the bot needs, plus the wire types it speaks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, botToken string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   botToken,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Patch edits a previously sent message, addressed by API endpoint path
// (e.g. "webhooks/<app>/<token>/messages/@original").
func (c *Client) Patch(ctx context.Context, endpoint string, body any) error {
	return c.do(ctx, http.MethodPatch, endpoint, body)
}

// Post sends a new message, addressed by API endpoint path
// (e.g. "channels/<id>/messages").
func (c *Client) Post(ctx context.Context, endpoint string, body any) error {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// InstallGlobalCommands overwrites the application's global command set.
func (c *Client) InstallGlobalCommands(ctx context.Context, appID string, commands []Command) error {
	return c.do(ctx, http.MethodPut, "applications/"+appID+"/commands", commands)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode discord request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%s %s: status=%d body=%s", method, endpoint, res.StatusCode, string(respBody))
	}
	return nil
}
