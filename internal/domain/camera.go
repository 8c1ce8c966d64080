package domain

import "time"

type Resolution string

const (
	Resolution480p  Resolution = "480p"
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

func (r Resolution) Valid() bool {
	switch r {
	case Resolution480p, Resolution720p, Resolution1080p:
		return true
	}
	return false
}

// Rect is a normalized rectangle: every field in [0,1], and the rectangle
// must fit inside the unit square.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Valid() bool {
	if r.X < 0 || r.Y < 0 || r.Width < 0 || r.Height < 0 {
		return false
	}
	return r.X+r.Width <= 1 && r.Y+r.Height <= 1
}

// CameraSettings holds every field mutable through the settings-update path.
type CameraSettings struct {
	Name                   string     `json:"name"`
	IsActive               bool       `json:"isActive"`
	MotionDetectionEnabled bool       `json:"motionDetectionEnabled"`
	NightVisionEnabled     bool       `json:"nightVisionEnabled"`
	Resolution             Resolution `json:"resolution"`
	FrameRate              int        `json:"frameRate"`
	ROI                    Rect       `json:"roi"`
}

// DefaultCameraSettings mirrors the defaults a new camera gets when the
// creating client omits them.
func DefaultCameraSettings(name string) CameraSettings {
	return CameraSettings{
		Name:       name,
		IsActive:   true,
		Resolution: Resolution720p,
		FrameRate:  24,
		ROI:        Rect{X: 0.2, Y: 0.2, Width: 0.6, Height: 0.6},
	}
}

type Camera struct {
	ID        int `json:"id"`
	MonitorID int `json:"monitorId"`
	CameraSettings
	CreatedAt time.Time `json:"createdAt"`
}
