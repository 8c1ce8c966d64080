// Package relay pairs monitor and camera connections and fans messages
// between their rooms.
package relay

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// ConnID identifies one socket for its lifetime. Reconnecting always yields a
// new id, so bindings never survive a transport close.
type ConnID string

type Role string

const (
	RoleMonitor Role = "monitor"
	RoleCamera  Role = "camera"
)

// Sender is the transport half of a connection as the relay sees it. TrySend
// must never block; a connection that cannot accept the frame returns an
// error and the relay moves on.
type Sender interface {
	TrySend(data []byte) error
}

// Binding is a connection's current room membership. A connection holds at
// most one; a later join overwrites it.
type Binding struct {
	Role     Role
	EntityID int
	Room     string
	Conn     Sender
}

func MonitorRoom(monitorID int) string { return "monitor:" + strconv.Itoa(monitorID) }
func CameraRoom(cameraID int) string   { return "camera:" + strconv.Itoa(cameraID) }

type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]Binding
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]Binding)}
}

func (r *Registry) Bind(id ConnID, role Role, entityID int, conn Sender) {
	room := MonitorRoom(entityID)
	if role == RoleCamera {
		room = CameraRoom(entityID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = Binding{Role: role, EntityID: entityID, Room: room, Conn: conn}
	log.Info().Str("module", "relay.registry").Str("conn", string(id)).Str("room", room).Msg("bound connection")
}

func (r *Registry) Lookup(id ConnID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[id]
	return b, ok
}

// Remove tears down the binding on transport close. Removing an unknown id is
// a no-op.
func (r *Registry) Remove(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("removed connection")
}

// MembersOfRoom snapshots the senders currently bound to room.
func (r *Registry) MembersOfRoom(room string) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sender, 0, len(r.conns))
	for _, b := range r.conns {
		if b.Room == room {
			out = append(out, b.Conn)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
