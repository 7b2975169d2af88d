package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, scanner *bufio.Scanner) (string, string) {
	t.Helper()
	var name string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:") && name != "":
			return name, strings.TrimPrefix(line, "data:")
		}
	}
	require.NoError(t, scanner.Err())
	t.Fatal("stream ended")
	return "", ""
}

func TestManager_DeliversOnlyToTargetUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager()
	go m.Run()
	defer m.Stop()

	r := gin.New()
	r.GET("/events", func(c *gin.Context) { m.ServeHTTP(c, c.Query("user")) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?user=u1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	name, _ := nextEvent(t, scanner)
	assert.Equal(t, "connected", name)
	require.Eventually(t, func() bool { return m.Connected() == 1 }, time.Second, 10*time.Millisecond)

	m.SendToUser("u2", "items_changed", map[string]string{"for": "u2"})
	m.SendToUser("u1", "items_changed", map[string]string{"for": "u1"})

	name, data := nextEvent(t, scanner)
	assert.Equal(t, "items_changed", name)
	assert.Contains(t, data, `"u1"`)

	m.Broadcast("maintenance", "soon")
	name, _ = nextEvent(t, scanner)
	assert.Equal(t, "maintenance", name)

	cancel()
	assert.Eventually(t, func() bool { return m.Connected() == 0 }, time.Second, 10*time.Millisecond)
}

func TestManager_SendWithoutClientsDoesNotBlock(t *testing.T) {
	m := NewManager()
	for i := 0; i < 1000; i++ {
		m.SendToUser("nobody", "items_changed", i)
	}
	assert.Zero(t, m.Connected())
}
