package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticketgate/internal/pkg/errs"
	"ticketgate/internal/usecase/queries"

	"github.com/google/uuid"
)

// Client talks to the server's scanner-facing API. Every call needs a
// scanner session token from Login.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) Login(ctx context.Context, email, password, deviceID string) error {
	var resp loginResponse
	err := c.post(ctx, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
		DeviceID: deviceID,
	}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.AccessToken
	return nil
}

func (c *Client) DownloadSnapshot(ctx context.Context, eventID uuid.UUID) (*queries.CacheSnapshot, error) {
	var snap queries.CacheSnapshot
	if err := c.get(ctx, "/api/events/"+eventID.String()+"/cache", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type syncClaimPayload struct {
	ClaimID   uuid.UUID `json:"claim_id"`
	EventID   uuid.UUID `json:"event_id"`
	Token     string    `json:"token"`
	ScannedAt time.Time `json:"scanned_at"`
}

type syncRequest struct {
	Claims []syncClaimPayload `json:"claims"`
}

type syncResponse struct {
	Resolutions []ClaimResolution `json:"resolutions"`
}

// ClaimResolution mirrors the server's per-claim verdict. TicketStatus is the
// authoritative server status for the ticket; the syncer writes it back into
// the cache on every resolution.
type ClaimResolution struct {
	ClaimID      uuid.UUID    `json:"claim_id"`
	TicketID     uuid.UUID    `json:"ticket_id"`
	Result       string       `json:"result"`
	Reason       string       `json:"reason"`
	TicketStatus string       `json:"ticket_status"`
	Winner       *ClaimWinner `json:"winner,omitempty"`
}

func (c *Client) SyncClaims(ctx context.Context, claims []Claim) ([]ClaimResolution, error) {
	req := syncRequest{Claims: make([]syncClaimPayload, 0, len(claims))}
	for _, claim := range claims {
		req.Claims = append(req.Claims, syncClaimPayload{
			ClaimID:   claim.ID,
			EventID:   claim.EventID,
			Token:     claim.Token,
			ScannedAt: claim.ScannedAt,
		})
	}

	var resp syncResponse
	if err := c.post(ctx, "/api/checkins/sync", req, &resp); err != nil {
		return nil, err
	}
	return resp.Resolutions, nil
}

type checkInRequest struct {
	Token   string    `json:"token"`
	EventID uuid.UUID `json:"event_id"`
}

// CheckInResult mirrors the server's online redemption verdict.
type CheckInResult struct {
	Result   string       `json:"result"`
	Reason   string       `json:"reason"`
	TicketID uuid.UUID    `json:"ticket_id"`
	Winner   *ClaimWinner `json:"winner,omitempty"`
}

// CheckIn submits one token for online redemption. This is the escalation
// path for decisions the offline tree cannot make alone, static-token nonce
// checks in particular.
func (c *Client) CheckIn(ctx context.Context, token string, eventID uuid.UUID) (*CheckInResult, error) {
	var res CheckInResult
	if err := c.post(ctx, "/api/checkins", checkInRequest{Token: token, EventID: eventID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(err, "failed to marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errs.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errs.Wrap(err, "failed to build request")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.New(fmt.Sprintf("server returned %d: %s", resp.StatusCode, string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(err, "failed to decode response")
	}
	return nil
}
