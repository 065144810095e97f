// Package socket pushes chat messages to connected clients. Clients join
// the room named by the sorted-pair conversation key; the join opens a
// reconciled conversation view whose merged stream drives the newMessage
// events for that connection, history first, then live updates.
package socket

import (
	"context"
	"log"
	"sync"

	"fitmatch_server/models"
	"fitmatch_server/services"

	socketio "github.com/googollee/go-socket.io"
)

// ConversationOpener opens the reconciled live view over a chat. The chat
// service implements this.
type ConversationOpener interface {
	OpenConversation(ctx context.Context, selfID, otherID string) (*services.Conversation, error)
}

// emitter is the slice of socketio.Conn the feed loop needs.
type emitter interface {
	Emit(msg string, v ...interface{})
}

// Server wraps the Socket.IO server and implements services.Broadcaster.
type Server struct {
	io     *socketio.Server
	opener ConversationOpener

	mu    sync.Mutex
	feeds map[string]*services.Conversation // keyed by connection id
}

// NewServer initializes and returns a new Socket.IO server
func NewServer() *Server {
	s := &Server{feeds: make(map[string]*services.Conversation)}
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	// Clients join the conversation room for a pair of users. The join
	// also starts that connection's reconciled message feed.
	io.OnEvent("/", "join", func(c socketio.Conn, data map[string]string) {
		selfID := data["selfId"]
		otherID := data["otherId"]
		if selfID == "" || otherID == "" {
			log.Println("❌ Invalid join request: selfId and otherId are required")
			return
		}
		room := models.PairKey(selfID, otherID)
		log.Printf("👥 Socket %s joined room %s", c.ID(), room)
		c.Join(room)
		s.openFeed(c.ID(), c, selfID, otherID)
	})

	io.OnEvent("/", "leave", func(c socketio.Conn, data map[string]string) {
		selfID := data["selfId"]
		otherID := data["otherId"]
		if selfID == "" || otherID == "" {
			return
		}
		c.Leave(models.PairKey(selfID, otherID))
		s.closeFeed(c.ID())
	})

	io.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
		s.closeFeed(c.ID())
	})

	s.io = io
	return s
}

// SetOpener wires the conversation source. Without one, joins fall back to
// room broadcasts only.
func (s *Server) SetOpener(opener ConversationOpener) { s.opener = opener }

// openFeed starts the per-connection reconciled feed, replacing any feed
// the connection had open.
func (s *Server) openFeed(connID string, em emitter, selfID, otherID string) {
	if s.opener == nil {
		return
	}
	conv, err := s.opener.OpenConversation(context.Background(), selfID, otherID)
	if err != nil {
		log.Printf("❌ Failed to open conversation %s <-> %s: %v", selfID, otherID, err)
		return
	}

	s.mu.Lock()
	old := s.feeds[connID]
	s.feeds[connID] = conv
	s.mu.Unlock()
	if old != nil {
		go old.Close()
	}
	go feedConversation(conv, em)
}

// closeFeed tears down the connection's feed, if any.
func (s *Server) closeFeed(connID string) {
	s.mu.Lock()
	conv := s.feeds[connID]
	delete(s.feeds, connID)
	s.mu.Unlock()
	if conv != nil {
		conv.Close()
	}
}

// feedConversation emits every confirmed message of the reconciled view to
// one connection, in view order, de-duplicated by id. A terminal stream
// error is surfaced as a streamError event; the client owns resubscription.
func feedConversation(conv *services.Conversation, em emitter) {
	seen := make(map[string]struct{})
	deliver := func() {
		for _, m := range conv.Messages() {
			if m.Pending {
				continue
			}
			if _, ok := seen[m.MessageID]; ok {
				continue
			}
			seen[m.MessageID] = struct{}{}
			em.Emit("newMessage", m)
		}
	}

	deliver()
	for range conv.Updates() {
		deliver()
	}
	if err := conv.Err(); err != nil {
		em.Emit("streamError", err.Error())
	}
}

// BroadcastMessage pushes a stored message to everyone in the room.
func (s *Server) BroadcastMessage(room string, m models.Message) {
	s.io.BroadcastToRoom("/", room, "newMessage", m)
}

// IO exposes the underlying server for mounting and lifecycle control.
func (s *Server) IO() *socketio.Server { return s.io }

// Serve runs the Socket.IO event loop. Call in a goroutine.
func (s *Server) Serve() error { return s.io.Serve() }

// Close shuts the event loop down and tears down every open feed.
func (s *Server) Close() error {
	s.mu.Lock()
	feeds := make([]*services.Conversation, 0, len(s.feeds))
	for id, conv := range s.feeds {
		feeds = append(feeds, conv)
		delete(s.feeds, id)
	}
	s.mu.Unlock()
	for _, conv := range feeds {
		conv.Close()
	}
	return s.io.Close()
}
