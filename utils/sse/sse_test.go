package sse

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"data only", Event{Data: "hello"}, "data: hello\n\n"},
		{"json payload", Event{Event: "unread_count", Data: map[string]int{"unread_count": 3}}, "event: unread_count\ndata: {\"unread_count\":3}\n\n"},
		{"id and retry", Event{ID: "42", Retry: 5000, Event: "notification", Data: []byte(`{}`)}, "id: 42\nretry: 5000\nevent: notification\ndata: {}\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Send(bufio.NewWriter(&buf), tt.event))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSendErrorAndKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, SendError(w, "boom"))
	require.NoError(t, SendKeepAlive(w))

	assert.Equal(t, "event: error\ndata: {\"message\":\"boom\",\"type\":\"error\"}\n\n: ping\n\n", buf.String())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestSendReportsClosedConnection(t *testing.T) {
	w := bufio.NewWriterSize(brokenWriter{}, 16)
	assert.Error(t, Send(w, Event{Event: "unread_count", Data: "a payload longer than the buffer"}))
}
