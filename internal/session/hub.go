package session

import (
	"sync"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

// Hub is a topic registry: subscribers join a topic's group and receive
// everything published to it.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

func NewHub() *Hub { return &Hub{groups: make(map[string]*Group)} }

func (h *Hub) Subscribe(topic string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[topic]
	if !ok {
		g = NewGroup(topic)
		h.groups[topic] = g
	}
	g.Join(s)
}

func (h *Hub) Unsubscribe(topic string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[topic]
	if !ok {
		return
	}
	if left := g.Leave(s); left == 0 {
		delete(h.groups, topic)
	}
}

func (h *Hub) Publish(topic string, frame models.WSFrame) {
	h.PublishExcept(topic, nil, frame)
}

func (h *Hub) PublishExcept(topic string, sender Subscriber, frame models.WSFrame) {
	h.mu.RLock()
	g, ok := h.groups[topic]
	h.mu.RUnlock()
	if !ok {
		return
	}
	g.Broadcast(sender, frame)
}

// Drop removes the topic and every subscription to it.
func (h *Hub) Drop(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, topic)
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	g, ok := h.groups[topic]
	if !ok {
		return 0
	}
	return g.GetClientCount()
}
