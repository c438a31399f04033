package server

import "sync"

// RoomRegistry maps room ids to the set of clients currently joined, with a
// reverse index used to clear a client's memberships on disconnect. Rooms
// exist implicitly: the first join creates the entry and the last leave
// drops it. State is in-memory only and lost on restart, so clients rejoin
// after reconnecting.
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
	}
}

// Join adds c to room. Idempotent if c is already a member. Reports whether
// the room entry was created by this join.
func (rr *RoomRegistry) Join(c *Client, room string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	created := rr.rooms[room] == nil
	if created {
		rr.rooms[room] = make(map[*Client]struct{})
	}
	rr.rooms[room][c] = struct{}{}

	if rr.clients[c] == nil {
		rr.clients[c] = make(map[string]struct{})
	}
	rr.clients[c][room] = struct{}{}

	return created
}

// Leave removes c from room. No-op if c is not a member. Reports whether the
// room entry was emptied and dropped.
func (rr *RoomRegistry) Leave(c *Client, room string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return rr.leaveLocked(c, room)
}

func (rr *RoomRegistry) leaveLocked(c *Client, room string) bool {
	members, ok := rr.rooms[room]
	if !ok {
		return false
	}

	delete(members, c)
	if memberRooms, ok := rr.clients[c]; ok {
		delete(memberRooms, room)
		if len(memberRooms) == 0 {
			delete(rr.clients, c)
		}
	}

	if len(members) == 0 {
		delete(rr.rooms, room)
		return true
	}

	return false
}

// Members returns a snapshot of the clients currently in room, taken at
// call time. The snapshot is safe to iterate while joins and leaves proceed.
func (rr *RoomRegistry) Members(room string) []*Client {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	members := make([]*Client, 0, len(rr.rooms[room]))
	for c := range rr.rooms[room] {
		members = append(members, c)
	}

	return members
}

// Rooms returns the rooms c is currently a member of.
func (rr *RoomRegistry) Rooms(c *Client) []string {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	rooms := make([]string, 0, len(rr.clients[c]))
	for room := range rr.clients[c] {
		rooms = append(rooms, room)
	}

	return rooms
}

// RemoveAll removes c from every room it is a member of, returning the rooms
// it left and how many of them were emptied and dropped.
func (rr *RoomRegistry) RemoveAll(c *Client) ([]string, int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rooms := make([]string, 0, len(rr.clients[c]))
	var emptied int
	for room := range rr.clients[c] {
		rooms = append(rooms, room)
		if rr.leaveLocked(c, room) {
			emptied++
		}
	}

	return rooms, emptied
}

// NumRooms returns the number of rooms with at least one member.
func (rr *RoomRegistry) NumRooms() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return len(rr.rooms)
}
