package handlers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovaradar/internal/domain/opportunity"
	"innovaradar/internal/domain/progress"
)

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestMatchWebSocket_StreamsRunAndPersists(t *testing.T) {
	opps := []opportunity.Opportunity{{ClientName: "Acme", TrendTitle: "New AI Chip", MatchScore: 95}}
	matcher := &fakeMatcher{events: []progress.Event{
		progress.Logf("Score: 95"),
		progress.Result(opps),
	}}

	server := httptest.NewServer(MatchWebSocketHandler(matcher))
	defer server.Close()

	conn := dialWS(t, server.URL+"?client=Acme&limit=3")
	defer conn.Close()

	var first wsEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "log", first.Kind)
	assert.Equal(t, "Score: 95", first.Message)

	var last wsEvent
	require.NoError(t, conn.ReadJSON(&last))
	assert.Equal(t, "result", last.Kind)
	require.Len(t, last.Opportunities, 1)

	matcher.mu.Lock()
	defer matcher.mu.Unlock()
	assert.Equal(t, "Acme", matcher.filter)
	assert.Equal(t, 3, matcher.limit)
	assert.Equal(t, opps, matcher.saved, "candidates are persisted before the result frame")
}

func TestMatchWebSocket_SaveFailureReportedBeforeResult(t *testing.T) {
	matcher := &fakeMatcher{
		events:  []progress.Event{progress.Result([]opportunity.Opportunity{{ClientName: "Acme"}})},
		saveErr: errors.New("disk full"),
	}

	server := httptest.NewServer(MatchWebSocketHandler(matcher))
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()

	var first wsEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "log", first.Kind)
	assert.Contains(t, first.Message, "Error saving opportunities")

	var last wsEvent
	require.NoError(t, conn.ReadJSON(&last))
	assert.Equal(t, "result", last.Kind, "the result still arrives, after the failure is reported")
}

func TestIngestWebSocket_StreamsScan(t *testing.T) {
	scanner := &fakeScanner{events: []progress.Event{
		progress.Logf("3 trends saved."),
		progress.Result(nil),
	}}

	server := httptest.NewServer(IngestWebSocketHandler(scanner))
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()

	var first wsEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "log", first.Kind)

	var last wsEvent
	require.NoError(t, conn.ReadJSON(&last))
	assert.Equal(t, "result", last.Kind)
}
