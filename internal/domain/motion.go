package domain

import "time"

// MotionEvent is append-only: created by the relay when a camera reports a
// detection, never mutated afterwards.
type MotionEvent struct {
	ID          int       `json:"id"`
	CameraID    int       `json:"cameraId"`
	Confidence  float64   `json:"confidence"`
	BoundingBox Rect      `json:"boundingBox"`
	CreatedAt   time.Time `json:"createdAt"`
}
