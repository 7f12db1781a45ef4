// Package stream drives one bidirectional generation exchange with the
// Live API backend over a websocket. One Session value can run many
// exchanges; each Run opens its own connection.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Config carries the connection endpoint and generation parameters sent in
// the setup frame.
type Config struct {
	Endpoint           string
	Model              string
	Temperature        float64
	TopP               float64
	ResponseModalities string
	HandshakeTimeout   time.Duration
}

// PartialFunc receives the accumulated analysis text after each content
// fragment. Calls are strictly ordered, each text a superset-prefix of the
// previous one, ending in exactly one final=true call on success.
type PartialFunc func(text string, final bool)

// sessionState tracks the protocol position. Content is never sent before
// the setup acknowledgement arrives.
type sessionState int

const (
	stateAwaitingSetupAck sessionState = iota
	stateStreaming
)

type Session struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(log.Writer(), "[STREAM] ", log.LstdFlags)
	}
	handshake := cfg.HandshakeTimeout
	if handshake <= 0 {
		handshake = 10 * time.Second
	}
	return &Session{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: handshake},
		logger: logger,
	}
}

// Run performs one complete exchange: connect, send setup, wait for the
// acknowledgement, send the prompt as a single completed user turn, then
// accumulate streamed fragments until the backend reports turn completion.
// onPartial fires once per fragment with the accumulated text and once
// more with final=true when the turn completes.
//
// Cancellation is cooperative: ctx is checked before each inbound frame is
// processed, and a watcher closes the socket when ctx ends so a blocked
// read unblocks. A cancelled or expired ctx is returned as ctx's own
// error; connection failures come back as *TransportError.
func (s *Session) Run(ctx context.Context, credential, sourceText, instructions string, onPartial PartialFunc) (string, error) {
	endpoint := s.cfg.Endpoint + "?key=" + url.QueryEscape(credential)

	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return "", &TransportError{Op: "dial", Err: err}
	}

	// The watcher closes the connection when ctx ends, which fails the
	// pending read. watcherDone makes Run's exit wait for it so the
	// connection never outlives the call.
	watcherStop := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watcherStop:
		}
	}()
	defer func() {
		close(watcherStop)
		<-watcherDone
		_ = conn.Close()
	}()

	setup := setupMessage{Setup: setupPayload{
		Model: s.cfg.Model,
		GenerationConfig: generationConfig{
			Temperature:        s.cfg.Temperature,
			TopP:               s.cfg.TopP,
			ResponseModalities: s.cfg.ResponseModalities,
		},
		Tools: toolsPayload{FunctionDeclarations: []interface{}{}},
	}}
	if err := conn.WriteJSON(setup); err != nil {
		return "", &TransportError{Op: "write setup", Err: err}
	}

	prompt := instructions + "\n\nTranscript:\n" + sourceText
	state := stateAwaitingSetupAck
	accumulated := ""

	for {
		// Text and binary frames alike carry JSON payloads; binary blobs
		// just need decoding as text.
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &TransportError{Op: "read", Err: err}
		}

		// Message-boundary cancellation check: a frame already read is
		// not processed once the context has ended.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Printf("dropping unparseable frame (%d bytes): %v", len(payload), err)
			continue
		}

		switch {
		case msg.SetupComplete != nil:
			if state != stateAwaitingSetupAck {
				s.logger.Printf("dropping duplicate setup ack")
				continue
			}
			content := clientContentMessage{ClientContent: clientContent{
				Turns:        []turn{{Role: "user", Parts: []part{{Text: prompt}}}},
				TurnComplete: true,
			}}
			if err := conn.WriteJSON(content); err != nil {
				return "", &TransportError{Op: "write content", Err: err}
			}
			state = stateStreaming

		case msg.ServerContent != nil:
			sc := msg.ServerContent
			if sc.Interrupted {
				return "", ErrInterrupted
			}
			if sc.ModelTurn != nil {
				for _, p := range sc.ModelTurn.Parts {
					accumulated += p.Text
				}
				if onPartial != nil {
					onPartial(accumulated, false)
				}
			}
			if sc.TurnComplete {
				if onPartial != nil {
					onPartial(accumulated, true)
				}
				return accumulated, nil
			}

		default:
			s.logger.Printf("dropping unrecognized frame (%d bytes)", len(payload))
		}
	}
}
