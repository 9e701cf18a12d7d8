package ws

import (
	"encoding/json"
	"sync"
	"time"

	"greencycle/internal/model"
	"greencycle/pkg/logger"

	"github.com/gofiber/contrib/websocket"
)

// Publisher delivers live notifications to connected dashboards
type Publisher interface {
	Publish(event Event)
}

// Event is the envelope every client receives
type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data,omitempty"`
	User    *EventUser  `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

type EventUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewEvent fills the envelope for an action performed by actor
func NewEvent(eventType, action string, actor model.Actor, data interface{}, message string) Event {
	return Event{
		Type:    eventType,
		Action:  action,
		Data:    data,
		User:    &EventUser{ID: actor.UserID, Name: actor.Name, Email: actor.Email},
		Message: message,
		SentAt:  time.Now(),
	}
}

const broadcastQueueSize = 256

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, broadcastQueueSize),
	}
}

// Publish encodes the event and queues it in order without blocking the
// caller. When the queue is full the event is dropped and logged.
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.LogError("ws", "Publish", event.Action, nil, err)
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		logger.Get().WithField("action", event.Action).Warn("websocket broadcast queue full, event dropped")
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			logger.Get().Debug("websocket client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Discard drops every event. Used by CLIs and tests.
type Discard struct{}

func (Discard) Publish(Event) {}
