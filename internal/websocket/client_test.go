package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	return &Client{
		id:     "test",
		hub:    hub,
		send:   make(chan []byte, 8),
		logger: logger,
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshaling reply: %v", err)
		}
		return msg
	default:
		t.Fatal("no reply queued for client")
		return Message{}
	}
}

func TestSubscribeRejectsUnknownChannel(t *testing.T) {
	c := newTestClient(t)

	c.handleMessage(&ClientMessage{Type: MessageTypeSubscribe, Channel: "bogus"})
	if msg := receive(t, c); msg.Type != MessageTypeError {
		t.Errorf("reply type = %q, want error for unknown channel", msg.Type)
	}

	c.handleMessage(&ClientMessage{Type: MessageTypeSubscribe})
	if msg := receive(t, c); msg.Type != MessageTypeError {
		t.Errorf("reply type = %q, want error for missing channel", msg.Type)
	}
}

func TestSubscribeAcksKnownChannel(t *testing.T) {
	c := newTestClient(t)

	c.handleMessage(&ClientMessage{Type: MessageTypeSubscribe, Channel: "presence"})
	msg := receive(t, c)
	if msg.Type != "subscribed" || msg.Channel != "presence" {
		t.Errorf("reply = %q/%q, want subscribed ack for presence", msg.Type, msg.Channel)
	}
}
