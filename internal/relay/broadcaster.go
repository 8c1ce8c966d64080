package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Broadcaster delivers a message to every connection bound to a room.
// Delivery is fire-and-forget: a member that cannot take the frame is
// skipped, never retried or queued.
type Broadcaster struct {
	reg *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

func (b *Broadcaster) Broadcast(room string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay.broadcast").Str("room", room).Msg("marshal")
		return
	}
	sent, skipped := 0, 0
	for _, conn := range b.reg.MembersOfRoom(room) {
		if err := conn.TrySend(data); err != nil {
			skipped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "relay.broadcast").Str("room", room).Int("sent", sent).Int("skipped", skipped).Msg("broadcast")
}
