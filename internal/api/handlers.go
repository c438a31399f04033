package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"roomcast/internal/database"
	"roomcast/internal/server"
	"roomcast/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateUserRequest struct {
	Username    string `json:"username" validate:"required"`
	DisplayName string `json:"display_name"`
}

type CreateRoomRequest struct {
	Id      string `json:"id"`
	Name    string `json:"name" validate:"required"`
	IsGroup *bool  `json:"is_group"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatApp) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := validate.Struct(req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.db.CreateUser(database.CreateUserParams{
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicate) {
			errResp = NewBadRequestMessageError("username exists")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.User{
		Username:    newUser.Username,
		DisplayName: newUser.DisplayName,
	})
}

func (s *ChatApp) getUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetUserByUsername(username)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrNotFound) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.User{
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

func (s *ChatApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := validate.Struct(req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := req.Id
	if externalId == "" {
		sid, err := s.generateShortId()
		if err != nil {
			s.log.Println("generate room id:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		externalId = sid
	}

	// group chat unless the caller says otherwise
	isGroup := true
	if req.IsGroup != nil {
		isGroup = *req.IsGroup
	}

	newRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		ExternalId: externalId,
		Name:       req.Name,
		IsGroup:    isGroup,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicate) {
			errResp = NewBadRequestMessageError("room exists")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Room{
		Id:      newRoom.ExternalId,
		Name:    newRoom.Name,
		IsGroup: newRoom.IsGroup,
	})
}

func (s *ChatApp) listRooms(w http.ResponseWriter, r *http.Request) {
	dbRooms, err := s.db.ListRooms()
	if err != nil {
		s.log.Println("list rooms:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := lo.Map(dbRooms, func(room database.Room, _ int) types.Room {
		return types.Room{
			Id:      room.ExternalId,
			Name:    room.Name,
			IsGroup: room.IsGroup,
		}
	})

	s.writeJson(w, http.StatusOK, rooms)
}

// getMessages returns the oldest limit messages for a room, ascending by
// timestamp. The limit defaults per config and is rejected outside
// [1, max].
func (s *ChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	if room == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit := s.defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > s.maxHistoryLimit {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	dbMessages, err := s.db.GetMessages(room, limit)
	if err != nil {
		s.log.Println("get messages:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := lo.Map(dbMessages, func(msg database.Message, _ int) types.Message {
		return types.Message{
			Room:      msg.Room,
			Sender:    msg.Sender,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		}
	})

	s.writeJson(w, http.StatusOK, messages)
}

func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients send no origin header
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
