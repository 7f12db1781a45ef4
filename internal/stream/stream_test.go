package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type scriptedFrame struct {
	messageType int
	payload     string
}

// scriptedBackend runs a websocket server that performs the setup
// handshake and then plays the given frames. It records the prompt
// received in the client content turn.
type scriptedBackend struct {
	t       *testing.T
	frames  []scriptedFrame
	prompt  chan string
	setupCh chan setupMessage
	srv     *httptest.Server
}

func newScriptedBackend(t *testing.T, frames []scriptedFrame) *scriptedBackend {
	t.Helper()
	b := &scriptedBackend{
		t:       t,
		frames:  frames,
		prompt:  make(chan string, 1),
		setupCh: make(chan setupMessage, 1),
	}
	upgrader := websocket.Upgrader{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// First inbound frame must be setup; content before the
		// acknowledgement is a protocol violation.
		var setup setupMessage
		if err := conn.ReadJSON(&setup); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if setup.Setup.Model == "" {
			t.Errorf("first frame is not a setup message")
			return
		}
		b.setupCh <- setup

		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete":{}}`)); err != nil {
			return
		}

		var content clientContentMessage
		if err := conn.ReadJSON(&content); err != nil {
			t.Errorf("read client content: %v", err)
			return
		}
		if !content.ClientContent.TurnComplete {
			t.Errorf("client turn not marked complete")
		}
		if len(content.ClientContent.Turns) == 1 && len(content.ClientContent.Turns[0].Parts) == 1 {
			b.prompt <- content.ClientContent.Turns[0].Parts[0].Text
		}

		for _, f := range b.frames {
			if err := conn.WriteMessage(f.messageType, []byte(f.payload)); err != nil {
				return
			}
			// Give the client a chance to process frames one at a time.
			time.Sleep(10 * time.Millisecond)
		}
		// Hold the connection open; the client closes when done.
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *scriptedBackend) session() *Session {
	cfg := Config{
		Endpoint:           "ws" + strings.TrimPrefix(b.srv.URL, "http"),
		Model:              "models/gemini-2.0-flash-exp",
		Temperature:        0.7,
		TopP:               0.95,
		ResponseModalities: "text",
		HandshakeTimeout:   5 * time.Second,
	}
	return New(cfg, log.New(io.Discard, "", 0))
}

func contentFrame(text string) string {
	raw, _ := json.Marshal(serverMessage{ServerContent: &serverContent{
		ModelTurn: &modelTurn{Parts: []part{{Text: text}}},
	}})
	return string(raw)
}

func TestRunStreamsOrderedPartials(t *testing.T) {
	t.Parallel()
	backend := newScriptedBackend(t, []scriptedFrame{
		{websocket.TextMessage, contentFrame("CLAIM #1 ")},
		{websocket.TextMessage, contentFrame("VERDICT: Correct")},
		{websocket.TextMessage, `{"serverContent":{"turnComplete":true}}`},
	})

	var texts []string
	var finals []bool
	got, err := backend.session().Run(context.Background(), "test-key", "transcript", "instructions",
		func(text string, final bool) {
			texts = append(texts, text)
			finals = append(finals, final)
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "CLAIM #1 VERDICT: Correct" {
		t.Fatalf("accumulated %q", got)
	}
	if len(texts) != 3 {
		t.Fatalf("onPartial called %d times, want 3", len(texts))
	}
	wantFinals := []bool{false, false, true}
	for i := range wantFinals {
		if finals[i] != wantFinals[i] {
			t.Fatalf("finals = %v, want %v", finals, wantFinals)
		}
	}
	// Each call's text is a superset-prefix of the previous one.
	for i := 1; i < len(texts); i++ {
		if !strings.HasPrefix(texts[i], texts[i-1]) {
			t.Fatalf("call %d text %q does not extend %q", i, texts[i], texts[i-1])
		}
	}

	prompt := <-backend.prompt
	if !strings.Contains(prompt, "instructions") || !strings.Contains(prompt, "Transcript:\ntranscript") {
		t.Fatalf("prompt %q missing instructions or transcript", prompt)
	}
}

func TestRunDecodesBinaryFrames(t *testing.T) {
	t.Parallel()
	backend := newScriptedBackend(t, []scriptedFrame{
		{websocket.BinaryMessage, contentFrame("blob text")},
		{websocket.BinaryMessage, `{"serverContent":{"turnComplete":true}}`},
	})

	got, err := backend.session().Run(context.Background(), "k", "src", "inst", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "blob text" {
		t.Fatalf("accumulated %q", got)
	}
}

func TestRunInterrupted(t *testing.T) {
	t.Parallel()
	backend := newScriptedBackend(t, []scriptedFrame{
		{websocket.TextMessage, contentFrame("partial ")},
		{websocket.TextMessage, `{"serverContent":{"interrupted":true}}`},
	})

	calls := 0
	_, err := backend.session().Run(context.Background(), "k", "src", "inst",
		func(string, bool) { calls++ })
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("err = %v, want ErrInterrupted", err)
	}
	if calls != 1 {
		t.Fatalf("onPartial called %d times after interruption, want 1", calls)
	}
}

func TestRunDropsMalformedFrames(t *testing.T) {
	t.Parallel()
	backend := newScriptedBackend(t, []scriptedFrame{
		{websocket.TextMessage, `this is not json`},
		{websocket.TextMessage, contentFrame("survived")},
		{websocket.TextMessage, `{"serverContent":{"turnComplete":true}}`},
	})

	got, err := backend.session().Run(context.Background(), "k", "src", "inst", nil)
	if err != nil {
		t.Fatalf("malformed frame must not terminate the session: %v", err)
	}
	if got != "survived" {
		t.Fatalf("accumulated %q", got)
	}
}

func TestRunCooperativeCancellation(t *testing.T) {
	t.Parallel()
	backend := newScriptedBackend(t, []scriptedFrame{
		{websocket.TextMessage, contentFrame("first ")},
		{websocket.TextMessage, contentFrame("second ")},
		{websocket.TextMessage, `{"serverContent":{"turnComplete":true}}`},
	})

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := backend.session().Run(ctx, "k", "src", "inst", func(text string, final bool) {
		calls++
		if final {
			t.Error("final callback after cancellation")
		}
		cancel() // cancel as soon as the first fragment lands
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("onPartial called %d times after cancellation, want 1", calls)
	}
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()
	// Backend acknowledges setup and then goes silent.
	backend := newScriptedBackend(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := backend.session().Run(ctx, "k", "src", "inst", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestRunDialFailure(t *testing.T) {
	t.Parallel()
	s := New(Config{Endpoint: "ws://127.0.0.1:1", HandshakeTimeout: time.Second, Model: "m"}, log.New(io.Discard, "", 0))
	_, err := s.Run(context.Background(), "k", "src", "inst", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if te.Op != "dial" {
		t.Fatalf("op = %q, want dial", te.Op)
	}
}
