package relay

import (
	"sync"
	"testing"
)

// fakeConn records everything it accepted; failErr simulates a socket that is
// not ready to send.
type fakeConn struct {
	mu      sync.Mutex
	frames  [][]byte
	failErr error
}

func (f *fakeConn) TrySend(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

func TestRoomNames(t *testing.T) {
	if got := MonitorRoom(7); got != "monitor:7" {
		t.Errorf("MonitorRoom(7) = %q", got)
	}
	if got := CameraRoom(3); got != "camera:3" {
		t.Errorf("CameraRoom(3) = %q", got)
	}
}

func TestBindAndLookup(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	r.Bind("c1", RoleCamera, 3, conn)
	b, ok := r.Lookup("c1")
	if !ok {
		t.Fatal("binding not found")
	}
	if b.Role != RoleCamera || b.EntityID != 3 || b.Room != "camera:3" {
		t.Errorf("binding = %+v", b)
	}
}

func TestLaterJoinOverwritesBinding(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	r.Bind("c1", RoleCamera, 3, conn)
	r.Bind("c1", RoleMonitor, 5, conn)

	b, _ := r.Lookup("c1")
	if b.Role != RoleMonitor || b.Room != "monitor:5" {
		t.Errorf("binding after rebind = %+v, want monitor:5", b)
	}
	if r.Len() != 1 {
		t.Errorf("registry holds %d bindings, want 1", r.Len())
	}
	if len(r.MembersOfRoom("camera:3")) != 0 {
		t.Error("old room still lists the rebound connection")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", RoleMonitor, 1, &fakeConn{})

	r.Remove("c1")
	r.Remove("c1")
	r.Remove("never-bound")

	if _, ok := r.Lookup("c1"); ok {
		t.Error("binding survived Remove")
	}
	if len(r.MembersOfRoom("monitor:1")) != 0 {
		t.Error("removed connection still a room member")
	}
}

func TestMembersOfRoom(t *testing.T) {
	r := NewRegistry()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Bind("a", RoleMonitor, 1, a)
	r.Bind("b", RoleMonitor, 1, b)
	r.Bind("c", RoleMonitor, 2, c)

	if got := len(r.MembersOfRoom("monitor:1")); got != 2 {
		t.Errorf("monitor:1 has %d members, want 2", got)
	}
	if got := len(r.MembersOfRoom("monitor:2")); got != 1 {
		t.Errorf("monitor:2 has %d members, want 1", got)
	}
	if got := len(r.MembersOfRoom("camera:1")); got != 0 {
		t.Errorf("camera:1 has %d members, want 0", got)
	}
}
