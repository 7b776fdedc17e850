package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection of one member.
type Client struct {
	MemberID uint
	Send     chan []byte
	Hub      *Hub // set so Close() can unregister
	mu       sync.Mutex
	closed   bool
}

func NewClient(memberID uint) *Client {
	return &Client{MemberID: memberID, Send: make(chan []byte, 256)}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// memberID -> clients (one member can have multiple connections)
	byMember map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		byMember: make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	if h.byMember[c.MemberID] == nil {
		h.byMember[c.MemberID] = make(map[*Client]struct{})
	}
	h.byMember[c.MemberID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byMember[c.MemberID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byMember, c.MemberID)
		}
	}
}

// BroadcastToMember queues payload on every connection of memberID and reports how many
// accepted it. Slow clients drop it.
func (h *Hub) BroadcastToMember(memberID uint, payload interface{}) int {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	m := h.byMember[memberID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	return deliver(clients, data)
}

func (h *Hub) BroadcastAll(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	deliver(clients, data)
}

func deliver(clients []*Client, data []byte) int {
	n := 0
	for _, c := range clients {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
				n++
			default:
			}
		}
		c.mu.Unlock()
	}
	return n
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
