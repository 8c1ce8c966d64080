package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/securewatch/securewatch/internal/store"
)

// Dispatcher is the protocol state machine. A connection starts unbound; a
// join message binds it, and everything else is validated against that
// binding. The protocol is one-way: no message is ever acknowledged or
// rejected back to the sender.
type Dispatcher struct {
	Registry  *Registry
	Store     *store.Store
	Broadcast *Broadcaster
}

// HandleMessage processes one inbound frame. Malformed or misdirected frames
// are logged and dropped; the connection stays open.
func (d *Dispatcher) HandleMessage(id ConnID, conn Sender, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "relay.dispatch").Str("conn", string(id)).Msg("bad json")
		return
	}

	switch env.Type {
	case TypeJoinMonitor:
		d.handleJoinMonitor(id, conn, data)
	case TypeJoinCamera:
		d.handleJoinCamera(id, conn, data)
	case TypeCameraFrame:
		d.handleCameraFrame(id, data)
	case TypeMotionDetected:
		d.handleMotionDetected(id, data)
	case TypeCameraSettingsUpdate:
		d.handleSettingsUpdate(id, data)
	default:
		log.Warn().Str("module", "relay.dispatch").Str("conn", string(id)).Str("type", env.Type).Msg("unknown message type")
	}
}

// HandleClose removes the binding after a transport close, whatever the
// close reason was. Later broadcasts no longer see the connection.
func (d *Dispatcher) HandleClose(id ConnID) {
	d.Registry.Remove(id)
}

// Joins bind without checking that the target entity exists; possession of an
// id is accepted as-is.
func (d *Dispatcher) handleJoinMonitor(id ConnID, conn Sender, data []byte) {
	var p joinMonitorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay.dispatch").Str("conn", string(id)).Msg("bad join_monitor payload")
		return
	}
	d.Registry.Bind(id, RoleMonitor, p.MonitorID, conn)
}

func (d *Dispatcher) handleJoinCamera(id ConnID, conn Sender, data []byte) {
	var p joinCameraPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay.dispatch").Str("conn", string(id)).Msg("bad join_camera payload")
		return
	}
	d.Registry.Bind(id, RoleCamera, p.CameraID, conn)
}

// cameraOf resolves the sending connection to its camera. Unbound
// connections, monitor connections and unresolvable camera ids all fall out
// here as silent drops.
func (d *Dispatcher) cameraOf(id ConnID) (cameraID, monitorID int, ok bool) {
	b, ok := d.Registry.Lookup(id)
	if !ok || b.Role != RoleCamera {
		return 0, 0, false
	}
	cam, ok := d.Store.CameraByID(b.EntityID)
	if !ok {
		log.Debug().Str("module", "relay.dispatch").Str("conn", string(id)).Int("camera_id", b.EntityID).Msg("camera id does not resolve")
		return 0, 0, false
	}
	return cam.ID, cam.MonitorID, true
}

func (d *Dispatcher) handleCameraFrame(id ConnID, data []byte) {
	cameraID, monitorID, ok := d.cameraOf(id)
	if !ok {
		return
	}
	var p cameraFramePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay.dispatch").Str("conn", string(id)).Msg("bad camera_frame payload")
		return
	}
	d.Broadcast.Broadcast(MonitorRoom(monitorID), cameraFrameEvent{
		Type:     TypeCameraFrame,
		CameraID: cameraID,
		Frame:    p.Frame,
	})
}

func (d *Dispatcher) handleMotionDetected(id ConnID, data []byte) {
	cameraID, monitorID, ok := d.cameraOf(id)
	if !ok {
		return
	}
	var p motionDetectedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay.dispatch").Str("conn", string(id)).Msg("bad motion_detected payload")
		return
	}

	d.Store.CreateMotionEvent(cameraID, p.Confidence, p.BoundingBox)
	d.Broadcast.Broadcast(MonitorRoom(monitorID), motionDetectedEvent{
		Type:        TypeMotionDetected,
		CameraID:    cameraID,
		Confidence:  p.Confidence,
		BoundingBox: p.BoundingBox,
	})
}

// handleSettingsUpdate is notification-only: the settings patch reaches the
// monitor room untouched, persistence happens on the REST path.
func (d *Dispatcher) handleSettingsUpdate(id ConnID, data []byte) {
	cameraID, monitorID, ok := d.cameraOf(id)
	if !ok {
		return
	}
	var p settingsUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay.dispatch").Str("conn", string(id)).Msg("bad camera_settings_update payload")
		return
	}
	d.Broadcast.Broadcast(MonitorRoom(monitorID), settingsUpdateEvent{
		Type:     TypeCameraSettingsUpdate,
		CameraID: cameraID,
		Settings: p.Settings,
	})
}
