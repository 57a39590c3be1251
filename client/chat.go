package client

import "snowfield/protocol"

// ChatLog keeps the most recent chat lines and notifies listeners.
type ChatLog struct {
	max     int
	entries []protocol.ChatEntry

	nextID    int
	listeners map[int]func([]protocol.ChatEntry)
	onError   map[int]func(string)
}

// NewChatLog keeps at most limit entries.
func NewChatLog(limit int) *ChatLog {
	if limit <= 0 {
		limit = 50
	}
	return &ChatLog{
		max:       limit,
		listeners: make(map[int]func([]protocol.ChatEntry)),
		onError:   make(map[int]func(string)),
	}
}

// Add appends e, dropping the oldest entry beyond the limit.
func (c *ChatLog) Add(e protocol.ChatEntry) {
	c.entries = append(c.entries, e)
	if len(c.entries) > c.max {
		c.entries = append(c.entries[:0:0], c.entries[len(c.entries)-c.max:]...)
	}
	c.emit()
}

// Entries returns a copy of the log, oldest first.
func (c *ChatLog) Entries() []protocol.ChatEntry {
	return append([]protocol.ChatEntry(nil), c.entries...)
}

func (c *ChatLog) Clear() {
	c.entries = nil
	c.emit()
}

// OnChange subscribes fn to log changes. The returned func unsubscribes.
func (c *ChatLog) OnChange(fn func([]protocol.ChatEntry)) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

// OnError subscribes fn to chat errors. The returned func unsubscribes.
func (c *ChatLog) OnError(fn func(string)) func() {
	id := c.nextID
	c.nextID++
	c.onError[id] = fn
	return func() { delete(c.onError, id) }
}

// ReportError forwards a server or local chat error to listeners.
func (c *ChatLog) ReportError(msg string) {
	for _, fn := range c.onError {
		fn(msg)
	}
}

func (c *ChatLog) emit() {
	for _, fn := range c.listeners {
		fn(c.Entries())
	}
}
