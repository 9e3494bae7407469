// Package faceclient talks to the external face-recognition service.
// Matching itself happens there; this client only moves base64 images
// and user ids across HTTP.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RecognizeResult is the outcome of a 1:N gallery search.
type RecognizeResult struct {
	Success    bool    `json:"success"`
	UserID     string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
	Message    string  `json:"message"`
}

// EnrollResult is the outcome of registering a face for a user.
type EnrollResult struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, all calls return canned success
// results so the rest of the system can run without the service.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // face processing can take a while
		},
	}
}

// Recognize submits a base64-encoded image and returns the matched
// user, if any.
func (c *Client) Recognize(ctx context.Context, image string) (*RecognizeResult, error) {
	if c.Skip {
		return &RecognizeResult{Success: true, UserID: "dev-user", Similarity: 0.99, Message: "skip mode"}, nil
	}
	if image == "" {
		return nil, fmt.Errorf("image required")
	}
	var out RecognizeResult
	if err := c.postJSON(ctx, "/api/face/recognize", map[string]string{"image": image}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enroll registers a face image for a user.
func (c *Client) Enroll(ctx context.Context, userID, image string) (*EnrollResult, error) {
	if c.Skip {
		return &EnrollResult{Success: true, UserID: userID, Message: "skip mode"}, nil
	}
	if userID == "" || image == "" {
		return nil, fmt.Errorf("user id and image required")
	}
	var out EnrollResult
	if err := c.postJSON(ctx, "/api/face/register", map[string]string{"user_id": userID, "image": image}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a user's enrollment from the gallery.
func (c *Client) Delete(ctx context.Context, userID string) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/api/face/delete/"+userID, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(body))
	}
	return nil
}

// Health pings the service root.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
