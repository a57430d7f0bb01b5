//go:build unit

package scanner_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticketgate/internal/scanner"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginStub(t *testing.T, mux *http.ServeMux, token string) {
	t.Helper()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			DeviceID string `json:"device_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body.DeviceID)
		json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	})
}

func TestClientCheckIn(t *testing.T) {
	t.Run("granted verdict round trips", func(t *testing.T) {
		ticketID := uuid.New()
		eventID := uuid.New()

		mux := http.NewServeMux()
		loginStub(t, mux, "session-token")
		mux.HandleFunc("POST /api/checkins", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

			var body struct {
				Token   string    `json:"token"`
				EventID uuid.UUID `json:"event_id"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "encoded-token", body.Token)
			assert.Equal(t, eventID, body.EventID)

			json.NewEncoder(w).Encode(map[string]any{
				"result":    "granted",
				"ticket_id": ticketID,
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := scanner.NewClient(srv.URL)
		require.NoError(t, client.Login(context.Background(), "scanner@example.com", "pw", "gate-a-01"))

		result, err := client.CheckIn(context.Background(), "encoded-token", eventID)
		require.NoError(t, err)
		assert.Equal(t, "granted", result.Result)
		assert.Equal(t, ticketID, result.TicketID)
		assert.Nil(t, result.Winner)
	})

	t.Run("duplicate carries the winning scan", func(t *testing.T) {
		winnerID := uuid.New()

		mux := http.NewServeMux()
		loginStub(t, mux, "session-token")
		mux.HandleFunc("POST /api/checkins", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"result": "already_used",
				"reason": "ticket already used",
				"winner": map[string]any{
					"scanner_user_id": winnerID,
					"device_id":       "gate-b-02",
					"scanned_at":      baseTime,
				},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := scanner.NewClient(srv.URL)
		require.NoError(t, client.Login(context.Background(), "scanner@example.com", "pw", "gate-a-01"))

		result, err := client.CheckIn(context.Background(), "encoded-token", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "already_used", result.Result)
		require.NotNil(t, result.Winner)
		assert.Equal(t, winnerID, result.Winner.ScannerUserID)
		assert.Equal(t, "gate-b-02", result.Winner.DeviceID)
		assert.True(t, result.Winner.ScannedAt.Equal(baseTime))
	})

	t.Run("server error surfaces", func(t *testing.T) {
		mux := http.NewServeMux()
		loginStub(t, mux, "session-token")
		mux.HandleFunc("POST /api/checkins", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"replay registry unavailable"}`, http.StatusServiceUnavailable)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := scanner.NewClient(srv.URL)
		require.NoError(t, client.Login(context.Background(), "scanner@example.com", "pw", "gate-a-01"))

		_, err := client.CheckIn(context.Background(), "encoded-token", uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

func TestClientSyncClaims(t *testing.T) {
	claimID := uuid.New()
	ticketID := uuid.New()

	mux := http.NewServeMux()
	loginStub(t, mux, "session-token")
	mux.HandleFunc("POST /api/checkins/sync", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Claims []struct {
				ClaimID uuid.UUID `json:"claim_id"`
				Token   string    `json:"token"`
			} `json:"claims"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Claims, 1)
		assert.Equal(t, claimID, body.Claims[0].ClaimID)

		json.NewEncoder(w).Encode(map[string]any{
			"resolutions": []map[string]any{{
				"claim_id":      claimID,
				"ticket_id":     ticketID,
				"result":        "already_used",
				"reason":        "ticket already used",
				"ticket_status": "used",
				"winner": map[string]any{
					"scanner_user_id": uuid.New(),
					"device_id":       "gate-b-02",
					"scanned_at":      baseTime,
				},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := scanner.NewClient(srv.URL)
	require.NoError(t, client.Login(context.Background(), "scanner@example.com", "pw", "gate-a-01"))

	resolutions, err := client.SyncClaims(context.Background(), []scanner.Claim{{
		ID:        claimID,
		TicketID:  ticketID,
		EventID:   uuid.New(),
		Token:     "tok",
		ScannedAt: baseTime,
	}})
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, "already_used", resolutions[0].Result)
	assert.Equal(t, "used", resolutions[0].TicketStatus)
	require.NotNil(t, resolutions[0].Winner)
	assert.Equal(t, "gate-b-02", resolutions[0].Winner.DeviceID)
}
