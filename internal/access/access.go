// Package access issues and validates the pairing codes monitors hand out to
// cameras. Possession of a valid code is the only credential in the system.
package access

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/securewatch/securewatch/internal/domain"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{20}$`)

// Generate returns a 20-character code drawn uniformly from [A-Z0-9].
func Generate() string {
	buf := make([]byte, domain.AccessCodeLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			log.Error().Err(err).Str("module", "access").Msg("random source failure")
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}

// WellFormed reports whether code has the shape of an access code. It says
// nothing about whether the code resolves to a monitor.
func WellFormed(code string) bool {
	return codePattern.MatchString(code)
}

// MonitorSource is the slice of the store the validator needs.
type MonitorSource interface {
	MonitorByAccessCode(code string) (domain.Monitor, bool)
}

type Service struct {
	monitors MonitorSource
}

func NewService(monitors MonitorSource) *Service {
	return &Service{monitors: monitors}
}

// Validate resolves a presented code to its monitor. Matching is exact and
// case-sensitive; an unknown code reports absence, never an error.
func (s *Service) Validate(code string) (domain.Monitor, bool) {
	m, ok := s.monitors.MonitorByAccessCode(code)
	if !ok {
		log.Debug().Str("module", "access").Msg("access code rejected")
		return domain.Monitor{}, false
	}
	return m, true
}
