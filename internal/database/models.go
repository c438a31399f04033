package database

import "time"

type User struct {
	Id          int
	Username    string
	DisplayName string
	CreatedAt   time.Time
}

type Room struct {
	Id         int
	ExternalId string
	Name       string
	IsGroup    bool
	CreatedAt  time.Time
}

type Message struct {
	Id        int
	Room      string
	Sender    string
	Content   string
	CreatedAt time.Time
}

type CreateUserParams struct {
	Username    string
	DisplayName string
}

type CreateRoomParams struct {
	ExternalId string
	Name       string
	IsGroup    bool
}
