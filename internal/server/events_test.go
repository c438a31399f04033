package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roomcast/internal/types"
)

func Test_decodePayload(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		var p JoinRoomPayload
		err := decodePayload(json.RawMessage(`{"room":"general","username":"alice"}`), &p)
		assert.NoError(t, err, "expected no error for complete payload")
		assert.Equal(t, "general", p.Room, "expected room to be decoded")
		assert.Equal(t, "alice", p.Username, "expected username to be decoded")
	})

	t.Run("missing required field", func(t *testing.T) {
		var p SendMessagePayload
		err := decodePayload(json.RawMessage(`{"room":"general","sender":"alice"}`), &p)
		assert.Error(t, err, "expected error when content is missing")
	})

	t.Run("missing data", func(t *testing.T) {
		var p JoinRoomPayload
		err := decodePayload(nil, &p)
		assert.Error(t, err, "expected error when event data is absent")
	})

	t.Run("malformed json", func(t *testing.T) {
		var p JoinRoomPayload
		err := decodePayload(json.RawMessage(`{"room":`), &p)
		assert.Error(t, err, "expected error for malformed json")
	})
}

func TestNewMessageSerialization(t *testing.T) {
	ts := Now()
	ev := NewMessage(types.Message{
		Room:      "general",
		Sender:    "alice",
		Content:   "hi",
		Timestamp: ts,
	})

	expected := `{"event":"new_message","data":{"room":"general","sender":"alice","content":"hi","timestamp":"` +
		ts.Format(time.RFC3339Nano) + `"}}`

	bytes, err := json.Marshal(ev)
	assert.NoError(t, err, "expected no error during serialization")
	assert.Equal(t, expected, string(bytes), "expected serialized event to match wire format")
}

func TestSystemMessage(t *testing.T) {
	ev := SystemMessage("general", "alice joined general")
	assert.Equal(t, EventSystemMessage, ev.Event, "expected system_message event name")
	assert.Equal(t, SystemMessagePayload{Room: "general", Content: "alice joined general"}, ev.Data,
		"expected payload to carry room and content")
}

func TestErrorEvents(t *testing.T) {
	tcases := []struct {
		name string
		ev   *ServerEvent
		code string
	}{
		{name: "invalid payload", ev: ErrInvalidPayload("bad"), code: CodeInvalidPayload},
		{name: "storage unavailable", ev: ErrStorageUnavailable(), code: CodeStorageUnavailable},
		{name: "unknown event", ev: ErrUnknownEvent("nope"), code: CodeUnknownEvent},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, EventError, tc.ev.Event, "expected error event name")
			payload, ok := tc.ev.Data.(ErrorPayload)
			assert.True(t, ok, "expected ErrorPayload data")
			assert.Equal(t, tc.code, payload.Code, "expected error code to match")
			assert.NotEmpty(t, payload.Message, "expected a human-readable message")
		})
	}
}
