package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dartleague/internal/testutil"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     string
		expected string
	}{
		{
			name:     "single line data",
			event:    "match-updated",
			data:     `{"id":"m1"}`,
			expected: "event: match-updated\ndata: {\"id\":\"m1\"}\n\n",
		},
		{
			name:     "multi-line data",
			event:    "note",
			data:     "line1\nline2",
			expected: "event: note\ndata: line1\ndata: line2\n\n",
		},
		{
			name:     "empty data",
			event:    "ping",
			data:     "",
			expected: "event: ping\ndata: \n\n",
		},
		{
			name:     "carriage returns and trailing newline",
			event:    "note",
			data:     "line1\r\nline2\r\n",
			expected: "event: note\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatMessage(tt.event, tt.data)))
		})
	}
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func TestHub_RegisterAndPublish(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient("bob")
	require.True(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(EventMatchUpdated, map[string]string{"id": "m1"})

	select {
	case msg := <-client.send:
		assert.Equal(t, "event: match-updated\ndata: {\"id\":\"m1\"}\n\n", string(msg))
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient("bob")
	require.True(t, hub.Register(client))
	hub.Unregister(client)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()

	client := NewClient("bob")
	require.True(t, hub.Register(client))

	hub.Close()
	hub.Close()

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client channel was not closed")
	}

	assert.False(t, hub.Register(NewClient("cara")))
}

func TestHub_PublishUnencodableIsDropped(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient("bob")
	require.True(t, hub.Register(client))

	hub.Publish(EventMatchUpdated, make(chan int))

	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServeSSE_StreamsEvents(t *testing.T) {
	hub := newRunningHub(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, hub, "bob")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	// Skip the rest of the connected event
	for line != "\n" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(EventStandingsUpdated, map[string]int{"entries": 3})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: standings-updated\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, `data: {"entries":3}`))
}
