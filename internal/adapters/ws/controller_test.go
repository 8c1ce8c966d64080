package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/securewatch/securewatch/internal/access"
	router "github.com/securewatch/securewatch/internal/adapters/http"
	"github.com/securewatch/securewatch/internal/adapters/ws"
	"github.com/securewatch/securewatch/internal/config"
	"github.com/securewatch/securewatch/internal/domain"
	"github.com/securewatch/securewatch/internal/relay"
	"github.com/securewatch/securewatch/internal/store"
)

type rig struct {
	srv     *httptest.Server
	store   *store.Store
	reg     *relay.Registry
	monitor domain.Monitor
	camera  domain.Camera
}

func newRig(t *testing.T) *rig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(access.Generate)
	svc := access.NewService(st)
	reg := relay.NewRegistry()
	disp := &relay.Dispatcher{
		Registry:  reg,
		Store:     st,
		Broadcast: relay.NewBroadcaster(reg),
	}
	ctl := &ws.Controller{
		Dispatcher: disp,
		ReadLimit:  1 << 20,
		PingPeriod: 30 * time.Second,
		SendBuffer: 32,
	}
	cfg := &config.Config{Mode: "test"}
	r := router.SetupRouter(context.Background(), cfg, st, svc, ctl)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	m, err := st.CreateMonitor("Desk 1", "")
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	cam, err := st.CreateCamera(m.ID, domain.DefaultCameraSettings("Garage"))
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	return &rig{srv: srv, store: st, reg: reg, monitor: m, camera: cam}
}

func (r *rig) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(r.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return out
}

// waitFor polls until the condition holds; joins carry no acknowledgment, so
// tests watch the registry instead.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestFrameRelayEndToEnd(t *testing.T) {
	r := newRig(t)
	monitorRoom := relay.MonitorRoom(r.monitor.ID)
	cameraRoom := relay.CameraRoom(r.camera.ID)

	monitor := r.dial(t)
	writeJSON(t, monitor, map[string]any{"type": "join_monitor", "monitorId": r.monitor.ID})
	waitFor(t, "monitor join", func() bool { return len(r.reg.MembersOfRoom(monitorRoom)) == 1 })

	camera := r.dial(t)
	writeJSON(t, camera, map[string]any{"type": "join_camera", "cameraId": r.camera.ID})
	waitFor(t, "camera join", func() bool { return len(r.reg.MembersOfRoom(cameraRoom)) == 1 })

	writeJSON(t, camera, map[string]any{"type": "camera_frame", "frame": "f1"})
	writeJSON(t, camera, map[string]any{"type": "camera_frame", "frame": "f2"})

	first := readJSON(t, monitor)
	second := readJSON(t, monitor)
	if first["type"] != "camera_frame" || first["frame"] != "f1" {
		t.Errorf("first message = %v", first)
	}
	if second["frame"] != "f2" {
		t.Errorf("frames reordered: second = %v", second)
	}
	if int(first["cameraId"].(float64)) != r.camera.ID {
		t.Errorf("cameraId = %v, want %d", first["cameraId"], r.camera.ID)
	}
}

func TestMotionDetectedEndToEnd(t *testing.T) {
	r := newRig(t)
	monitorRoom := relay.MonitorRoom(r.monitor.ID)
	cameraRoom := relay.CameraRoom(r.camera.ID)

	monitor := r.dial(t)
	writeJSON(t, monitor, map[string]any{"type": "join_monitor", "monitorId": r.monitor.ID})
	waitFor(t, "monitor join", func() bool { return len(r.reg.MembersOfRoom(monitorRoom)) == 1 })

	camera := r.dial(t)
	writeJSON(t, camera, map[string]any{"type": "join_camera", "cameraId": r.camera.ID})
	waitFor(t, "camera join", func() bool { return len(r.reg.MembersOfRoom(cameraRoom)) == 1 })

	writeJSON(t, camera, map[string]any{
		"type":        "motion_detected",
		"confidence":  0.92,
		"boundingBox": map[string]float64{"x": 0.1, "y": 0.1, "width": 0.2, "height": 0.2},
	})

	msg := readJSON(t, monitor)
	if msg["type"] != "motion_detected" || msg["confidence"] != 0.92 {
		t.Errorf("message = %v", msg)
	}

	// The broadcast happens after the write, so the record is already there.
	events := r.store.MotionEventsByCamera(r.camera.ID, 50)
	if len(events) != 1 {
		t.Fatalf("store holds %d events, want 1", len(events))
	}
	if events[0].Confidence != 0.92 || events[0].BoundingBox.Width != 0.2 {
		t.Errorf("stored event = %+v", events[0])
	}
}

func TestAbnormalCloseCleansUpBinding(t *testing.T) {
	r := newRig(t)
	monitorRoom := relay.MonitorRoom(r.monitor.ID)
	cameraRoom := relay.CameraRoom(r.camera.ID)

	monitor := r.dial(t)
	writeJSON(t, monitor, map[string]any{"type": "join_monitor", "monitorId": r.monitor.ID})
	waitFor(t, "monitor join", func() bool { return len(r.reg.MembersOfRoom(monitorRoom)) == 1 })

	camera := r.dial(t)
	writeJSON(t, camera, map[string]any{"type": "join_camera", "cameraId": r.camera.ID})
	waitFor(t, "camera join", func() bool { return len(r.reg.MembersOfRoom(cameraRoom)) == 1 })

	// Kill the monitor socket without a close handshake.
	_ = monitor.UnderlyingConn().Close()
	waitFor(t, "binding cleanup", func() bool { return len(r.reg.MembersOfRoom(monitorRoom)) == 0 })

	// A broadcast into the now-empty room must not disturb the camera.
	writeJSON(t, camera, map[string]any{"type": "camera_frame", "frame": "f1"})
	waitFor(t, "camera still bound", func() bool { return len(r.reg.MembersOfRoom(cameraRoom)) == 1 })

	// The relay is still healthy: a new monitor can join and receive.
	replacement := r.dial(t)
	writeJSON(t, replacement, map[string]any{"type": "join_monitor", "monitorId": r.monitor.ID})
	waitFor(t, "replacement join", func() bool { return len(r.reg.MembersOfRoom(monitorRoom)) == 1 })

	writeJSON(t, camera, map[string]any{"type": "camera_frame", "frame": "f2"})
	msg := readJSON(t, replacement)
	if msg["frame"] != "f2" {
		t.Errorf("replacement monitor got %v", msg)
	}
}

func TestSettingsNotificationEndToEnd(t *testing.T) {
	r := newRig(t)
	monitorRoom := relay.MonitorRoom(r.monitor.ID)
	cameraRoom := relay.CameraRoom(r.camera.ID)

	monitor := r.dial(t)
	writeJSON(t, monitor, map[string]any{"type": "join_monitor", "monitorId": r.monitor.ID})
	waitFor(t, "monitor join", func() bool { return len(r.reg.MembersOfRoom(monitorRoom)) == 1 })

	camera := r.dial(t)
	writeJSON(t, camera, map[string]any{"type": "join_camera", "cameraId": r.camera.ID})
	waitFor(t, "camera join", func() bool { return len(r.reg.MembersOfRoom(cameraRoom)) == 1 })

	writeJSON(t, camera, map[string]any{
		"type":     "camera_settings_update",
		"settings": map[string]any{"nightVisionEnabled": true},
	})

	msg := readJSON(t, monitor)
	if msg["type"] != "camera_settings_update" {
		t.Fatalf("message = %v", msg)
	}
	settings, ok := msg["settings"].(map[string]any)
	if !ok || settings["nightVisionEnabled"] != true {
		t.Errorf("settings = %v", msg["settings"])
	}

	cam, _ := r.store.CameraByID(r.camera.ID)
	if cam.NightVisionEnabled {
		t.Error("relay settings notification must not persist")
	}
}
