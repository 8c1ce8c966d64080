// Package store is the single owner of monitor, camera and motion-event
// state. All access is mutex-guarded; reads return value snapshots so callers
// never observe a write in progress.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/securewatch/securewatch/internal/domain"
)

// maxCodeAttempts bounds the regeneration loop on access-code collisions.
const maxCodeAttempts = 10

type Store struct {
	genCode func() string

	mu           sync.RWMutex
	monitors     map[int]domain.Monitor
	cameras      map[int]domain.Camera
	motionEvents map[int]domain.MotionEvent
	byAccessCode map[string]int

	nextMonitorID     int
	nextCameraID      int
	nextMotionEventID int
}

// New builds an empty store. genCode supplies fresh access codes for
// CreateMonitor; it is injected so tests can force collisions.
func New(genCode func() string) *Store {
	return &Store{
		genCode:      genCode,
		monitors:     make(map[int]domain.Monitor),
		cameras:      make(map[int]domain.Camera),
		motionEvents: make(map[int]domain.MotionEvent),
		byAccessCode: make(map[string]int),

		nextMonitorID:     1,
		nextCameraID:      1,
		nextMotionEventID: 1,
	}
}

// CreateMonitor registers a monitor under a unique access code. When
// accessCode is empty a fresh one is generated, regenerating on collision.
// A caller-supplied code that is already taken is rejected.
func (s *Store) CreateMonitor(name, accessCode string) (domain.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accessCode == "" {
		for i := 0; ; i++ {
			if i == maxCodeAttempts {
				return domain.Monitor{}, domain.ErrAccessCodeTaken
			}
			accessCode = s.genCode()
			if _, taken := s.byAccessCode[accessCode]; !taken {
				break
			}
			log.Warn().Str("module", "store").Msg("access code collision, regenerating")
		}
	} else if _, taken := s.byAccessCode[accessCode]; taken {
		return domain.Monitor{}, domain.ErrAccessCodeTaken
	}

	m := domain.Monitor{
		ID:         s.nextMonitorID,
		Name:       name,
		AccessCode: accessCode,
		CreatedAt:  time.Now(),
	}
	s.nextMonitorID++
	s.monitors[m.ID] = m
	s.byAccessCode[accessCode] = m.ID
	log.Info().Str("module", "store").Int("monitor_id", m.ID).Msg("monitor created")
	return m, nil
}

func (s *Store) MonitorByID(id int) (domain.Monitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.monitors[id]
	return m, ok
}

func (s *Store) MonitorByAccessCode(code string) (domain.Monitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAccessCode[code]
	if !ok {
		return domain.Monitor{}, false
	}
	m, ok := s.monitors[id]
	return m, ok
}

// CreateCamera attaches a camera to a monitor. The owning monitor must exist;
// settings arrive already defaulted by the caller.
func (s *Store) CreateCamera(monitorID int, set domain.CameraSettings) (domain.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.monitors[monitorID]; !ok {
		return domain.Camera{}, domain.ErrMonitorNotFound
	}

	c := domain.Camera{
		ID:             s.nextCameraID,
		MonitorID:      monitorID,
		CameraSettings: set,
		CreatedAt:      time.Now(),
	}
	s.nextCameraID++
	s.cameras[c.ID] = c
	log.Info().Str("module", "store").Int("camera_id", c.ID).Int("monitor_id", monitorID).Msg("camera created")
	return c, nil
}

func (s *Store) CameraByID(id int) (domain.Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cameras[id]
	return c, ok
}

func (s *Store) CamerasByMonitor(monitorID int) []domain.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Camera, 0)
	for _, c := range s.cameras {
		if c.MonitorID == monitorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SettingsPatch carries the settings-update fields; nil means "keep current".
type SettingsPatch struct {
	Name                   *string
	IsActive               *bool
	MotionDetectionEnabled *bool
	NightVisionEnabled     *bool
	Resolution             *domain.Resolution
	FrameRate              *int
	ROI                    *domain.Rect
}

// UpdateCameraSettings applies the patch atomically. An unknown id reports
// absence rather than an error; callers branch on the bool.
func (s *Store) UpdateCameraSettings(id int, p SettingsPatch) (domain.Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cameras[id]
	if !ok {
		return domain.Camera{}, false
	}

	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.MotionDetectionEnabled != nil {
		c.MotionDetectionEnabled = *p.MotionDetectionEnabled
	}
	if p.NightVisionEnabled != nil {
		c.NightVisionEnabled = *p.NightVisionEnabled
	}
	if p.Resolution != nil {
		c.Resolution = *p.Resolution
	}
	if p.FrameRate != nil {
		c.FrameRate = *p.FrameRate
	}
	if p.ROI != nil {
		c.ROI = *p.ROI
	}

	s.cameras[id] = c
	log.Info().Str("module", "store").Int("camera_id", id).Msg("camera settings updated")
	return c, true
}

func (s *Store) CreateMotionEvent(cameraID int, confidence float64, box domain.Rect) domain.MotionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := domain.MotionEvent{
		ID:          s.nextMotionEventID,
		CameraID:    cameraID,
		Confidence:  confidence,
		BoundingBox: box,
		CreatedAt:   time.Now(),
	}
	s.nextMotionEventID++
	s.motionEvents[e.ID] = e
	log.Debug().Str("module", "store").Int("camera_id", cameraID).Float64("confidence", confidence).Msg("motion event recorded")
	return e
}

// MotionEventsByCamera returns the newest events for one camera, newest
// first, at most limit entries. Ids break ties between events created within
// the same clock tick.
func (s *Store) MotionEventsByCamera(cameraID, limit int) []domain.MotionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MotionEvent, 0)
	for _, e := range s.motionEvents {
		if e.CameraID == cameraID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
