// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"time"
)

const AccessCodeLen = 20

var (
	ErrMonitorNotFound   = errors.New("monitor not found")
	ErrCameraNotFound    = errors.New("camera not found")
	ErrAccessCodeTaken   = errors.New("access code already taken")
	ErrAccessCodeInvalid = errors.New("access code must be 20 uppercase letters or digits")
)

// Monitor is the viewing side of a pairing. Its access code is assigned at
// creation and never changes.
type Monitor struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"accessCode"`
	CreatedAt  time.Time `json:"createdAt"`
}
