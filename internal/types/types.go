package types

import "time"

type User struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

type Room struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
}

type Message struct {
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
