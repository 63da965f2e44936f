package models

import (
	"sync"

	"github.com/aukilabs/spatial/collision"
	"github.com/aukilabs/spatial/geom"
	"github.com/aukilabs/spatial/messages"
)

// Entity is an object placed in a session. It is the transform provider of
// its collider.
type Entity struct {
	ID            uint32
	ParticipantID uint32
	Persist       bool

	mutex sync.RWMutex
	pose  Pose

	// Guarded by the session collision mutex.
	collider *collision.Collider
}

func (e *Entity) SetPose(v Pose) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.pose = v
}

func (e *Entity) Pose() Pose {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.pose
}

// WorldModelMatrix returns the entity model matrix built from its pose.
func (e *Entity) WorldModelMatrix() geom.Matrix {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.pose.Matrix()
}

// Pose is an entity position, rotation and scale.
type Pose struct {
	Position geom.Vector3f
	Rotation geom.Quaternion
	Scale    geom.Vector3f
}

// NewPose returns a pose at the given position and rotation with a unit
// scale.
func NewPose(position geom.Vector3f, rotation geom.Quaternion) Pose {
	return Pose{
		Position: position,
		Rotation: rotation,
		Scale:    geom.One(),
	}
}

// PoseFromMessage converts a wire pose. A zero rotation becomes the identity
// and a missing scale becomes one.
func PoseFromMessage(p messages.Pose) Pose {
	pose := NewPose(p.Position, p.Rotation)
	pose.Rotation.Normalize()

	if p.Scale != nil {
		pose.Scale = *p.Scale
	}
	return pose
}

func (p Pose) Matrix() geom.Matrix {
	return geom.MakeTRS(p.Position, p.Rotation, p.Scale)
}

func (p Pose) ToMessage() messages.Pose {
	scale := p.Scale
	return messages.Pose{
		Position: p.Position,
		Rotation: p.Rotation,
		Scale:    &scale,
	}
}
