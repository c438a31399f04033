package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"roomcast/internal/types"
)

// Client-originated event names.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
)

// Server-originated event names.
const (
	EventSystemMessage = "system_message"
	EventNewMessage    = "new_message"
	EventError         = "error"
)

// Error codes carried in error events.
const (
	CodeInvalidPayload     = "invalid_payload"
	CodeStorageUnavailable = "storage_unavailable"
	CodeUnknownEvent       = "unknown_event"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ClientEvent is the envelope for every event a client sends.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinRoomPayload struct {
	Room     string `json:"room" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type LeaveRoomPayload struct {
	Room     string `json:"room" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type SendMessagePayload struct {
	Room    string `json:"room" validate:"required"`
	Sender  string `json:"sender" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// ServerEvent is the envelope for every event pushed to a client.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type SystemMessagePayload struct {
	Room    string `json:"room"`
	Content string `json:"content"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func SystemMessage(room, content string) *ServerEvent {
	return &ServerEvent{
		Event: EventSystemMessage,
		Data: SystemMessagePayload{
			Room:    room,
			Content: content,
		},
	}
}

func NewMessage(msg types.Message) *ServerEvent {
	return &ServerEvent{
		Event: EventNewMessage,
		Data:  msg,
	}
}

func ErrInvalidPayload(msg string) *ServerEvent {
	return &ServerEvent{
		Event: EventError,
		Data: ErrorPayload{
			Code:    CodeInvalidPayload,
			Message: msg,
		},
	}
}

func ErrStorageUnavailable() *ServerEvent {
	return &ServerEvent{
		Event: EventError,
		Data: ErrorPayload{
			Code:    CodeStorageUnavailable,
			Message: "message could not be stored",
		},
	}
}

func ErrUnknownEvent(name string) *ServerEvent {
	return &ServerEvent{
		Event: EventError,
		Data: ErrorPayload{
			Code:    CodeUnknownEvent,
			Message: fmt.Sprintf("unknown event %q", name),
		},
	}
}

// decodePayload unmarshals raw into v and checks its required fields.
// Missing fields are an error, never substituted with zero values.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing event data")
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse event data: %w", err)
	}

	return validate.Struct(v)
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
