package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"roomcast/internal/testutil"
)

func newTestClient(t *testing.T) *Client {
	return &Client{
		id:   uuid.NewString(),
		log:  testutil.TestLogger(t),
		send: make(chan *ServerEvent, 256),
		stop: make(chan struct{}),
	}
}

func TestJoinLeaveMembers(t *testing.T) {
	rr := NewRoomRegistry()
	c := newTestClient(t)

	created := rr.Join(c, "general")
	assert.True(t, created, "expected first join to create the room")
	assert.Contains(t, rr.Members("general"), c, "expected members to contain client after join")

	created = rr.Join(c, "general")
	assert.False(t, created, "expected repeat join not to create the room")
	assert.Len(t, rr.Members("general"), 1, "expected join to be idempotent")

	emptied := rr.Leave(c, "general")
	assert.True(t, emptied, "expected room to be dropped when last member leaves")
	assert.NotContains(t, rr.Members("general"), c, "expected members not to contain client after leave")
	assert.Zero(t, rr.NumRooms(), "expected no rooms after last leave")
}

func TestLeaveAbsentIsNoop(t *testing.T) {
	rr := NewRoomRegistry()
	c := newTestClient(t)

	emptied := rr.Leave(c, "nosuchroom")
	assert.False(t, emptied, "expected leave on unknown room to be a no-op")

	other := newTestClient(t)
	rr.Join(other, "general")
	emptied = rr.Leave(c, "general")
	assert.False(t, emptied, "expected leave by non-member to be a no-op")
	assert.Len(t, rr.Members("general"), 1, "expected existing member to be unaffected")
}

func TestMembersSnapshot(t *testing.T) {
	rr := NewRoomRegistry()
	a, b := newTestClient(t), newTestClient(t)

	rr.Join(a, "general")
	rr.Join(b, "general")

	members := rr.Members("general")
	assert.ElementsMatch(t, []*Client{a, b}, members, "expected snapshot to contain both members")

	// mutating the registry must not affect the snapshot already taken
	rr.Leave(b, "general")
	assert.Len(t, members, 2, "expected snapshot to be unaffected by later leave")
	assert.Len(t, rr.Members("general"), 1, "expected registry to reflect the leave")
}

func TestRemoveAll(t *testing.T) {
	rr := NewRoomRegistry()
	a, b := newTestClient(t), newTestClient(t)

	rr.Join(a, "general")
	rr.Join(a, "random")
	rr.Join(b, "general")

	rooms, emptied := rr.RemoveAll(a)
	assert.ElementsMatch(t, []string{"general", "random"}, rooms, "expected RemoveAll to report every room left")
	assert.Equal(t, 1, emptied, "expected only the solo room to be dropped")
	assert.Empty(t, rr.Rooms(a), "expected client to have no memberships after RemoveAll")
	assert.Contains(t, rr.Members("general"), b, "expected remaining member to stay in room")
	assert.Empty(t, rr.Members("random"), "expected emptied room to have no members")
}

func TestRooms(t *testing.T) {
	rr := NewRoomRegistry()
	c := newTestClient(t)

	assert.Empty(t, rr.Rooms(c), "expected no rooms before join")

	rr.Join(c, "general")
	rr.Join(c, "random")
	assert.ElementsMatch(t, []string{"general", "random"}, rr.Rooms(c), "expected both joined rooms")
}
