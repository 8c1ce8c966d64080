package relay

import (
	"encoding/json"

	"github.com/securewatch/securewatch/internal/domain"
)

// Every frame on the wire is a JSON object with a "type" discriminator.
const (
	TypeJoinMonitor          = "join_monitor"
	TypeJoinCamera           = "join_camera"
	TypeCameraFrame          = "camera_frame"
	TypeMotionDetected       = "motion_detected"
	TypeCameraSettingsUpdate = "camera_settings_update"
)

type envelope struct {
	Type string `json:"type"`
}

type joinMonitorPayload struct {
	MonitorID int `json:"monitorId"`
}

type joinCameraPayload struct {
	CameraID int `json:"cameraId"`
}

// cameraFramePayload keeps the frame opaque: the relay forwards the encoded
// image without re-parsing it.
type cameraFramePayload struct {
	Frame json.RawMessage `json:"frame"`
}

type motionDetectedPayload struct {
	Confidence  float64     `json:"confidence"`
	BoundingBox domain.Rect `json:"boundingBox"`
}

type settingsUpdatePayload struct {
	Settings json.RawMessage `json:"settings"`
}

type cameraFrameEvent struct {
	Type     string          `json:"type"`
	CameraID int             `json:"cameraId"`
	Frame    json.RawMessage `json:"frame"`
}

type motionDetectedEvent struct {
	Type        string      `json:"type"`
	CameraID    int         `json:"cameraId"`
	Confidence  float64     `json:"confidence"`
	BoundingBox domain.Rect `json:"boundingBox"`
}

type settingsUpdateEvent struct {
	Type     string          `json:"type"`
	CameraID int             `json:"cameraId"`
	Settings json.RawMessage `json:"settings"`
}
