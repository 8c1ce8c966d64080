package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/securewatch/securewatch/internal/access"
	"github.com/securewatch/securewatch/internal/domain"
	"github.com/securewatch/securewatch/internal/store"
)

const defaultMotionEventLimit = 50

type Handler struct {
	store    *store.Store
	access   *access.Service
	validate *validator.Validate
}

type createMonitorRequest struct {
	Name string `json:"name" validate:"required"`
	// Optional caller-supplied code; normally left empty so a fresh one is
	// generated.
	AccessCode string `json:"accessCode"`
}

func (h *Handler) CreateMonitor(c *gin.Context) {
	var req createMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AccessCode != "" && !access.WellFormed(req.AccessCode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrAccessCodeInvalid.Error()})
		return
	}

	m, err := h.store.CreateMonitor(req.Name, req.AccessCode)
	if err != nil {
		if errors.Is(err, domain.ErrAccessCodeTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("create monitor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create monitor"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type validateAccessCodeRequest struct {
	AccessCode string `json:"accessCode" validate:"required"`
}

func (h *Handler) ValidateAccessCode(c *gin.Context) {
	var req validateAccessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access code is required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access code is required"})
		return
	}

	m, ok := h.access.Validate(req.AccessCode)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid access code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "monitor": m})
}

func (h *Handler) ListCameras(c *gin.Context) {
	monitorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monitor id"})
		return
	}
	c.JSON(http.StatusOK, h.store.CamerasByMonitor(monitorID))
}

type createCameraRequest struct {
	Name      string `json:"name" validate:"required"`
	MonitorID int    `json:"monitorId" validate:"required,gt=0"`

	IsActive               *bool              `json:"isActive"`
	MotionDetectionEnabled *bool              `json:"motionDetectionEnabled"`
	NightVisionEnabled     *bool              `json:"nightVisionEnabled"`
	Resolution             *domain.Resolution `json:"resolution"`
	FrameRate              *int               `json:"frameRate" validate:"omitempty,gt=0"`
	ROI                    *domain.Rect       `json:"roi"`
}

func (h *Handler) CreateCamera(c *gin.Context) {
	var req createCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Resolution != nil && !req.Resolution.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown resolution"})
		return
	}
	if req.ROI != nil && !req.ROI.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roi must fit inside the unit square"})
		return
	}

	set := domain.DefaultCameraSettings(req.Name)
	if req.IsActive != nil {
		set.IsActive = *req.IsActive
	}
	if req.MotionDetectionEnabled != nil {
		set.MotionDetectionEnabled = *req.MotionDetectionEnabled
	}
	if req.NightVisionEnabled != nil {
		set.NightVisionEnabled = *req.NightVisionEnabled
	}
	if req.Resolution != nil {
		set.Resolution = *req.Resolution
	}
	if req.FrameRate != nil {
		set.FrameRate = *req.FrameRate
	}
	if req.ROI != nil {
		set.ROI = *req.ROI
	}

	cam, err := h.store.CreateCamera(req.MonitorID, set)
	if err != nil {
		if errors.Is(err, domain.ErrMonitorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "monitor not found"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("create camera")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create camera"})
		return
	}
	c.JSON(http.StatusOK, cam)
}

func (h *Handler) GetCamera(c *gin.Context) {
	cameraID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return
	}
	cam, ok := h.store.CameraByID(cameraID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
		return
	}
	c.JSON(http.StatusOK, cam)
}

type updateCameraSettingsRequest struct {
	Name                   *string            `json:"name" validate:"omitempty,min=1"`
	IsActive               *bool              `json:"isActive"`
	MotionDetectionEnabled *bool              `json:"motionDetectionEnabled"`
	NightVisionEnabled     *bool              `json:"nightVisionEnabled"`
	Resolution             *domain.Resolution `json:"resolution"`
	FrameRate              *int               `json:"frameRate" validate:"omitempty,gt=0"`
	ROI                    *domain.Rect       `json:"roi"`
}

func (h *Handler) UpdateCameraSettings(c *gin.Context) {
	cameraID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return
	}

	var req updateCameraSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Resolution != nil && !req.Resolution.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown resolution"})
		return
	}
	// Out-of-square regions are rejected outright, never clamped.
	if req.ROI != nil && !req.ROI.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roi must fit inside the unit square"})
		return
	}

	cam, ok := h.store.UpdateCameraSettings(cameraID, store.SettingsPatch{
		Name:                   req.Name,
		IsActive:               req.IsActive,
		MotionDetectionEnabled: req.MotionDetectionEnabled,
		NightVisionEnabled:     req.NightVisionEnabled,
		Resolution:             req.Resolution,
		FrameRate:              req.FrameRate,
		ROI:                    req.ROI,
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
		return
	}
	c.JSON(http.StatusOK, cam)
}

func (h *Handler) ListMotionEvents(c *gin.Context) {
	cameraID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return
	}
	limit := defaultMotionEventLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}
	c.JSON(http.StatusOK, h.store.MotionEventsByCamera(cameraID, limit))
}
