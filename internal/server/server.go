package server

import (
	"context"
	"log"
	"sync"

	"roomcast/internal/database"
	"roomcast/internal/stats"
)

const (
	metricActiveConnections = "ActiveConnections"
	metricActiveRooms       = "ActiveRooms"
	metricMessagesSaved     = "MessagesSaved"
	metricEventsDropped     = "EventsDropped"
)

// ChatServer owns the connection set and the room registry and fans
// server events out to room members.
type ChatServer struct {
	log            *log.Logger
	db             database.Repository
	stats          stats.StatsProvider
	registry       *RoomRegistry
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	stop           chan struct{}
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, db database.Repository, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		db:             db,
		stats:          su,
		registry:       NewRoomRegistry(),
		clients:        make(map[*Client]struct{}),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	su.RegisterMetric(metricActiveConnections)
	su.RegisterMetric(metricActiveRooms)
	su.RegisterMetric(metricMessagesSaved)
	su.RegisterMetric(metricEventsDropped)

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case client := <-cs.RegisterChan:
			cs.log.Printf("session %s connected", client.id)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("session %s disconnected", client.id)
			cs.removeClient(client)
		case <-cs.stop:
			cs.log.Println("stopping client sessions")
			cs.clientsLock.Lock()
			for c := range cs.clients {
				c.stopClient()
			}
			cs.clientsLock.Unlock()

			close(cs.done)
			return
		}
	}
}

// RegisterClient hands a freshly upgraded connection to the server loop.
func (cs *ChatServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
	cs.stats.Incr(metricActiveConnections)
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	if _, ok := cs.clients[c]; !ok {
		return
	}
	delete(cs.clients, c)
	cs.stats.Decr(metricActiveConnections)
}

// Broadcast delivers event to every client in room except exclude (nil
// excludes nobody). Membership is a snapshot taken now, not when the
// triggering event arrived. Delivery is fire-and-forget: a recipient whose
// queue is full is skipped so one slow session never blocks the rest.
func (cs *ChatServer) Broadcast(room string, event *ServerEvent, exclude *Client) {
	for _, c := range cs.registry.Members(room) {
		if c == exclude {
			continue
		}

		if !c.queueEvent(event) {
			cs.stats.Incr(metricEventsDropped)
			cs.log.Printf("dropped %s event for session %s: send queue full", event.Event, c.id)
		}
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
