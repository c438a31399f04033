package database

import "errors"

var (
	// ErrStorageUnavailable wraps any failure to durably complete a write
	// or read against the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint, e.g. an existing username.
	ErrDuplicate = errors.New("record already exists")
)

type Repository interface {
	Ping() error
	SaveMessage(room, sender, content string) (Message, error)
	GetMessages(room string, limit int) ([]Message, error)
	CreateUser(params CreateUserParams) (User, error)
	GetUserByUsername(username string) (User, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	ListRooms() ([]Room, error)
	Close() error
}
