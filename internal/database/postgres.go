package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PgChatRepository struct {
	conn *sql.DB
}

func NewPgChatRepository(dsn string) (*PgChatRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgChatRepository{conn: db}, nil
}

// Migrate applies any pending schema migrations from the embedded
// migration files.
func (db *PgChatRepository) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db.conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (db *PgChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgChatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// SaveMessage assigns the message timestamp server-side at call time and
// inserts the record. The stored message, timestamp included, is returned
// so callers can broadcast exactly what was persisted.
func (db *PgChatRepository) SaveMessage(room, sender, content string) (Message, error) {
	msg := Message{
		Room:      room,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC().Round(time.Millisecond),
	}

	res := db.conn.QueryRow(
		"INSERT INTO messages (room, sender, content, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id",
		msg.Room,
		msg.Sender,
		msg.Content,
		msg.CreatedAt,
	)

	if err := res.Scan(&msg.Id); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return msg, nil
}

// GetMessages returns the oldest limit messages in room, ascending by
// timestamp.
func (db *PgChatRepository) GetMessages(room string, limit int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT id, room, sender, content, created_at FROM messages "+
			"WHERE room = $1 ORDER BY created_at ASC LIMIT $2",
		room,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Id, &msg.Room, &msg.Sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgChatRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (username, display_name, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, username, display_name, created_at",
		params.Username,
		params.DisplayName,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.CreatedAt,
	)

	return u, translateErr(err)
}

func (db *PgChatRepository) GetUserByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, display_name, created_at FROM users "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.CreatedAt,
	)

	return u, translateErr(err)
}

func (db *PgChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	res := db.conn.QueryRow(
		"INSERT INTO rooms (external_id, name, is_group, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, external_id, name, is_group, created_at",
		params.ExternalId,
		params.Name,
		params.IsGroup,
		time.Now().UTC(),
	)

	var room Room
	err := res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.IsGroup,
		&room.CreatedAt,
	)

	return room, translateErr(err)
}

func (db *PgChatRepository) ListRooms() ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, name, is_group, created_at FROM rooms ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var rooms = make([]Room, 0)
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.Id, &room.ExternalId, &room.Name, &room.IsGroup, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}

		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// translateErr maps driver-level errors to the package sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicate
	}

	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
