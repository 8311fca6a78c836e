package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parley "github.com/parley-ai/parley"
	"github.com/parley-ai/parley/frame"
	"github.com/parley-ai/parley/invoker"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	p, err := parley.New(context.Background(), func(o *parley.Options) {
		o.Config.Model.Provider = "mock"
		o.Invoker = invoker.NewMock()
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	ts := httptest.NewServer(New(p).Handler())
	t.Cleanup(ts.Close)

	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

type sseEvent struct {
	Type  string
	Frame frame.Frame
}

// readSSE drains a server-sent event stream until the server closes it,
// decoding each data payload back into a frame.
func readSSE(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()

	var (
		events []sseEvent
		cur    sseEvent
		seen   bool
	)
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Type = strings.TrimPrefix(line, "event: ")
			seen = true
		case strings.HasPrefix(line, "data: "):
			f, err := frame.Decode([]byte(strings.TrimPrefix(line, "data: ")))
			require.NoError(t, err)
			cur.Frame = f
		case line == "":
			if seen {
				events = append(events, cur)
				cur = sseEvent{}
				seen = false
			}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestServer_RoundOverSSE(t *testing.T) {
	ts := newTestServer(t)

	// Subscribe first: the handler registers the subscription before it
	// writes response headers, so frames cannot be lost after this returns.
	stream, err := http.Get(ts.URL + "/rounds/r-http/events")
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	resp := postJSON(t, ts.URL+"/rounds", `{
		"message": "Should we rewrite the billing system?",
		"session_id": "s-http",
		"round_id": "r-http",
		"personas": ["gandalf", "terminator"]
	}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var info parley.RoundInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "r-http", info.RoundID)
	assert.Equal(t, "rounds/r-http", info.TopicBase)
	assert.Equal(t, []string{"gandalf", "terminator"}, info.Personas)

	events := readSSE(t, stream)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, string(frame.KindAllComplete), last.Type, "stream ends on the round-level frame")

	var starts, completes int
	for _, ev := range events {
		assert.Equal(t, string(ev.Frame.Type), ev.Type, "SSE event name mirrors the frame type")
		switch ev.Frame.Type {
		case frame.KindStart:
			starts++
		case frame.KindComplete:
			completes++
			assert.Equal(t, "s-http", ev.Frame.SessionID)
			assert.NotEmpty(t, ev.Frame.Text)
		}
	}
	assert.Equal(t, 2, starts)
	assert.Equal(t, 2, completes)
}

func TestServer_CancelBeforeStart(t *testing.T) {
	ts := newTestServer(t)

	cancelResp := postJSON(t, ts.URL+"/rounds/r-cancel/cancel", "")
	defer cancelResp.Body.Close()
	require.Equal(t, http.StatusAccepted, cancelResp.StatusCode)

	var cr cancelResponse
	require.NoError(t, json.NewDecoder(cancelResp.Body).Decode(&cr))
	assert.Equal(t, "cancelling", cr.Status)
	assert.Equal(t, "r-cancel", cr.RoundID)

	stream, err := http.Get(ts.URL + "/rounds/r-cancel/events")
	require.NoError(t, err)
	defer stream.Body.Close()

	resp := postJSON(t, ts.URL+"/rounds", `{
		"message": "Never mind.",
		"round_id": "r-cancel",
		"personas": ["gandalf"]
	}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	events := readSSE(t, stream)
	require.Len(t, events, 1, "a pre-cancelled round yields a single frame")
	assert.Equal(t, string(frame.KindCancelled), events[0].Type)
}

func TestServer_StartRoundValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/rounds", `{"message": "  "}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2 := postJSON(t, ts.URL+"/rounds", `{"message": "hi", "personas": ["analyst"]}`)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	var er errorResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&er))
	assert.Contains(t, er.Error, "unknown persona")
}

func TestServer_Invoke(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/invoke", `{"persona": "terminator", "message": "Status report."}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res parley.SyncResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "terminator", res.Persona)
	assert.Equal(t, "Mock response to: Status report.", res.Text)
	assert.NotEmpty(t, res.SessionID, "a session is allocated when none is given")
}

func TestServer_InvokeRejectsUnknownPersona(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/invoke", `{"persona": "analyst", "message": "hi"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_History(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/invoke", `{"persona": "gandalf", "message": "Speak, friend.", "session_id": "s-hist"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	histResp, err := http.Get(ts.URL + "/sessions/s-hist/history")
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.Equal(t, http.StatusOK, histResp.StatusCode)

	var hr historyResponse
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&hr))
	assert.Equal(t, "s-hist", hr.SessionID)
	require.Len(t, hr.History, 2)
	assert.Equal(t, "user", hr.History[0].Role)
	assert.Equal(t, "assistant", hr.History[1].Role)
	assert.Equal(t, "gandalf", hr.History[1].Persona)
}

func TestServer_Healthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_EventsStreamEndsWithClient(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/rounds/r-idle/events", nil)
	require.NoError(t, err)

	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 1)
		for {
			if _, err := stream.Body.Read(buf); err != nil {
				return
			}
		}
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate after client disconnect")
	}
}
