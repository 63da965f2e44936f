package models

import (
	"github.com/aukilabs/spatial/messages"
)

// A session participant.
type Participant struct {
	ID        uint32
	Responder messages.ResponseSender

	entityIDs map[uint32]struct{}
}

func (p *Participant) AddEntity(e *Entity) {
	if p.entityIDs == nil {
		p.entityIDs = make(map[uint32]struct{})
	}
	p.entityIDs[e.ID] = struct{}{}
}

func (p *Participant) RemoveEntity(e *Entity) {
	delete(p.entityIDs, e.ID)
}

func (p *Participant) EntityIDs() map[uint32]struct{} {
	return p.entityIDs
}

// ParticipantIDs returns the ids of the given participants.
func ParticipantIDs(participants []*Participant) []uint32 {
	ids := make([]uint32, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	return ids
}
