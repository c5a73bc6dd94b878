package session

import (
	"sync"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

// Group is the set of subscribers currently attached to one topic.
type Group struct {
	ID      string
	mu      sync.Mutex
	clients map[string]Subscriber
}

func NewGroup(id string) *Group {
	return &Group{
		ID:      id,
		clients: make(map[string]Subscriber),
	}
}

func (g *Group) Join(s Subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[s.ID()] = s
}

func (g *Group) GetClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

func (g *Group) Leave(s Subscriber) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, s.ID())
	return len(g.clients)
}

// Broadcast sends frame to every subscriber except sender. A nil sender reaches everyone.
func (g *Group) Broadcast(sender Subscriber, frame models.WSFrame) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, c := range g.clients {
		if sender != nil && id == sender.ID() {
			continue
		}
		c.Send(frame)
	}
}
