package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitmatch_server/models"
	"fitmatch_server/services"
	"fitmatch_server/store"
)

func newMatchTestServer(t *testing.T) (*MatchController, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	return NewMatchController(services.NewMatchService(mem), mem), mem
}

func postLike(t *testing.T, mc *MatchController, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/match/like", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mc.Like(rec, req)
	return rec
}

func TestLikeEndpoint(t *testing.T) {
	mc, _ := newMatchTestServer(t)

	rec := postLike(t, mc, `{"actorId":"alice","targetId":"bob"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Outcome string             `json:"outcome"`
		Record  models.MatchRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(models.OutcomePendingCreated), resp.Outcome)
	assert.Equal(t, models.MatchStatusPending, resp.Record.Status)

	rec = postLike(t, mc, `{"actorId":"bob","targetId":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(models.OutcomeMutualMatch), resp.Outcome)
	assert.Equal(t, models.MatchStatusMatched, resp.Record.Status)
}

func TestLikeEndpointRejectsBadInput(t *testing.T) {
	mc, _ := newMatchTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"actorId":`},
		{name: "self match", body: `{"actorId":"alice","targetId":"alice"}`},
		{name: "missing target", body: `{"actorId":"alice"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLike(t, mc, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(models.ErrKindValidation), resp["kind"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGetConnectionsEndpoint(t *testing.T) {
	mc, mem := newMatchTestServer(t)
	ctx := context.Background()

	require.NoError(t, mem.PutProfile(ctx, models.Profile{UserID: "bob", DisplayName: "Bob", Age: 27, Major: "CS"}))
	_, _, err := mc.MatchService.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	_, _, err = mc.MatchService.Like(ctx, "bob", "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/match/connections?userId=alice", nil)
	rec := httptest.NewRecorder()
	mc.GetConnections(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Connections []services.Connection `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Connections, 1)
	assert.Equal(t, "bob", resp.Connections[0].PartnerID)
	require.NotNil(t, resp.Connections[0].Partner)
	assert.Equal(t, "Bob", resp.Connections[0].Partner.DisplayName)
}

func TestGetConnectionsRequiresUserID(t *testing.T) {
	mc, _ := newMatchTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/match/connections", nil)
	rec := httptest.NewRecorder()
	mc.GetConnections(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
