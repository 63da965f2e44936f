package models

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/spatial/collision"
	"github.com/aukilabs/spatial/messages"
	"github.com/google/uuid"
)

// Session represents a session that contains entities, point clouds and
// participants who can communicate between each other.
type Session struct {
	ID          uint32
	SessionUUID string

	AppKey string

	participantIDs   SequentialIDGenerator
	participantMutex sync.RWMutex
	participants     map[uint32]*Participant

	entityIDs   SequentialIDGenerator
	entityMutex sync.RWMutex
	entities    map[uint32]*Entity

	pointCloudIDs   SequentialIDGenerator
	pointCloudMutex sync.RWMutex
	pointClouds     map[uint32]*PointCloud

	// Guards the collision system, entity colliders and the hit buffer.
	// It is acquired before any entity mutex.
	collisionMutex sync.Mutex
	collisions     *collision.System
	hits           []collision.ColliderHit
}

func NewSession(id uint32) *Session {
	return &Session{
		ID:           id,
		SessionUUID:  uuid.New().String(),
		participants: make(map[uint32]*Participant),
		entities:     make(map[uint32]*Entity),
		pointClouds:  make(map[uint32]*PointCloud),
		collisions:   collision.NewSystem(),
	}
}

// Close detaches every collider and drops the session point clouds.
func (s *Session) Close() {
	s.collisionMutex.Lock()
	s.entityMutex.RLock()
	for _, e := range s.entities {
		s.removeCollider(e)
	}
	s.entityMutex.RUnlock()
	s.collisionMutex.Unlock()

	s.pointCloudMutex.Lock()
	for id := range s.pointClouds {
		delete(s.pointClouds, id)
		instrumentDecreasePointCloudGauge(s.AppKey)
	}
	s.pointCloudMutex.Unlock()
}

func (s *Session) NewParticipantID() uint32 {
	return s.participantIDs.New()
}

func (s *Session) AddParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	s.participants[p.ID] = p
}

func (s *Session) RemoveParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	delete(s.participants, p.ID)
}

// GetParticipants returns the session participants ordered by id.
func (s *Session) GetParticipants() []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		participants = append(participants, p)
	}

	slices.SortFunc(participants, func(a, b *Participant) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return participants
}

func (s *Session) GetParticipantsByIDs(ids ...uint32) []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := s.participants[id]
		if ok {
			participants = append(participants, p)
		}
	}
	return participants
}

func (s *Session) ParticipantCount() int {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	return len(s.participants)
}

func (s *Session) NewEntityID() uint32 {
	return s.entityIDs.New()
}

// AddEntity adds e to the session. When shape is not nil, e gets a collider
// attached to the session collision system.
func (s *Session) AddEntity(e *Entity, shape collision.Shape) error {
	if shape != nil {
		if err := s.SetEntityShape(e, shape); err != nil {
			return err
		}
	}

	s.entityMutex.Lock()
	defer s.entityMutex.Unlock()

	s.entities[e.ID] = e
	instrumentIncreaseEntityGauge(s.AppKey)
	return nil
}

// RemoveEntity removes e and its collider from the session. The entity id
// is released for reuse.
func (s *Session) RemoveEntity(e *Entity) {
	s.collisionMutex.Lock()
	s.removeCollider(e)
	s.collisionMutex.Unlock()

	s.entityMutex.Lock()
	defer s.entityMutex.Unlock()

	if _, ok := s.entities[e.ID]; !ok {
		return
	}

	delete(s.entities, e.ID)
	s.entityIDs.Reuse(e.ID)
	instrumentDecreaseEntityGauge(s.AppKey)
}

func (s *Session) EntityByID(id uint32) (*Entity, bool) {
	s.entityMutex.RLock()
	defer s.entityMutex.RUnlock()

	e, ok := s.entities[id]
	return e, ok
}

// Entities returns the session entities ordered by id.
func (s *Session) Entities() []*Entity {
	s.entityMutex.RLock()
	defer s.entityMutex.RUnlock()

	entities := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, e)
	}

	slices.SortFunc(entities, func(a, b *Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return entities
}

// SetEntityPose moves e and invalidates its cached world shape.
func (s *Session) SetEntityPose(e *Entity, p Pose) {
	s.collisionMutex.Lock()
	defer s.collisionMutex.Unlock()

	e.SetPose(p)
	if e.collider != nil {
		e.collider.MarkWorldShapeDirty()
	}
}

// SetEntityShape replaces the shape of the entity collider. A nil shape
// removes the collider.
func (s *Session) SetEntityShape(e *Entity, shape collision.Shape) error {
	s.collisionMutex.Lock()
	defer s.collisionMutex.Unlock()

	switch {
	case shape == nil:
		s.removeCollider(e)
		return nil

	case e.collider != nil:
		e.collider.SetShape(shape)
		return nil
	}

	c, err := collision.NewCollider(e, shape)
	if err != nil {
		return err
	}
	c.SetAttachedSystem(s.collisions)
	e.collider = c
	instrumentIncreaseColliderGauge(s.AppKey)
	return nil
}

func (s *Session) removeCollider(e *Entity) {
	if e.collider == nil {
		return
	}

	e.collider.SetAttachedSystem(nil)
	e.collider = nil
	instrumentDecreaseColliderGauge(s.AppKey)
}

// EntityShape returns the local shape of the entity collider, or nil.
func (s *Session) EntityShape(e *Entity) collision.Shape {
	s.collisionMutex.Lock()
	defer s.collisionMutex.Unlock()

	if e.collider == nil {
		return nil
	}
	return e.collider.Shape()
}

// EntityState returns the wire representation of e.
func (s *Session) EntityState(e *Entity) messages.EntityState {
	return messages.EntityState{
		ID:            e.ID,
		ParticipantID: e.ParticipantID,
		Persist:       e.Persist,
		Pose:          e.Pose().ToMessage(),
		Shape:         messages.NewShapeDef(s.EntityShape(e)),
	}
}

func (s *Session) EntityStates() []messages.EntityState {
	entities := s.Entities()

	states := make([]messages.EntityState, len(entities))
	for i, e := range entities {
		states[i] = s.EntityState(e)
	}
	return states
}

// EntityHit is a ray hit against an entity collider.
type EntityHit struct {
	collision.RayHit
	Entity *Entity
}

// Raycast returns the entity nearest to the ray origin.
func (s *Session) Raycast(r collision.Ray) (EntityHit, bool) {
	s.collisionMutex.Lock()
	defer s.collisionMutex.Unlock()

	hit := collision.NewRayHit()
	c := s.collisions.Raycast(r, &hit)
	if c == nil {
		return EntityHit{}, false
	}

	return EntityHit{
		RayHit: hit,
		Entity: colliderEntity(c),
	}, true
}

// RaycastAll returns every entity hit by the ray, nearest first. A positive
// limit caps the number of hits.
func (s *Session) RaycastAll(r collision.Ray, limit int) []EntityHit {
	s.collisionMutex.Lock()
	defer s.collisionMutex.Unlock()

	var count int
	s.hits, count = s.collisions.RaycastAll(r, s.hits)
	if limit > 0 && count > limit {
		count = limit
	}

	hits := make([]EntityHit, count)
	for i, h := range s.hits[:count] {
		hits[i] = EntityHit{
			RayHit: h.RayHit,
			Entity: colliderEntity(h.Collider),
		}
	}
	return hits
}

// Overlaps returns the entities whose colliders overlap the collider of e.
// When first is true, at most one entity is returned.
func (s *Session) Overlaps(e *Entity, first bool) []*Entity {
	s.collisionMutex.Lock()
	defer s.collisionMutex.Unlock()

	if e.collider == nil {
		return nil
	}

	if first {
		c := s.collisions.Intersects(e.collider)
		if c == nil {
			return nil
		}
		return []*Entity{colliderEntity(c)}
	}

	var entities []*Entity
	s.collisions.IntersectsAll(e.collider, func(c *collision.Collider) {
		entities = append(entities, colliderEntity(c))
	})
	return entities
}

func colliderEntity(c *collision.Collider) *Entity {
	e, _ := c.TransformProvider().(*Entity)
	return e
}

func (s *Session) NewPointCloudID() uint32 {
	return s.pointCloudIDs.New()
}

func (s *Session) AddPointCloud(pc *PointCloud) {
	s.pointCloudMutex.Lock()
	defer s.pointCloudMutex.Unlock()

	s.pointClouds[pc.ID] = pc
	instrumentIncreasePointCloudGauge(s.AppKey)
}

func (s *Session) RemovePointCloud(pc *PointCloud) {
	s.pointCloudMutex.Lock()
	defer s.pointCloudMutex.Unlock()

	if _, ok := s.pointClouds[pc.ID]; !ok {
		return
	}

	delete(s.pointClouds, pc.ID)
	s.pointCloudIDs.Reuse(pc.ID)
	instrumentDecreasePointCloudGauge(s.AppKey)
}

func (s *Session) PointCloudByID(id uint32) (*PointCloud, bool) {
	s.pointCloudMutex.RLock()
	defer s.pointCloudMutex.RUnlock()

	pc, ok := s.pointClouds[id]
	return pc, ok
}

// PointCloudStates returns the session point clouds ordered by id.
func (s *Session) PointCloudStates() []messages.PointCloudState {
	s.pointCloudMutex.RLock()
	defer s.pointCloudMutex.RUnlock()

	states := make([]messages.PointCloudState, 0, len(s.pointClouds))
	for _, pc := range s.pointClouds {
		states = append(states, pc.State())
	}

	slices.SortFunc(states, func(a, b messages.PointCloudState) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return states
}

// Broadcast sends a message to every participant but the sender. A nil
// sender broadcasts to everyone.
func (s *Session) Broadcast(sender *Participant, t messages.MsgType, data any) {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	msg, err := messages.MsgFromData(t, 0, data)
	if err != nil {
		logs.WithTag("msg_type", t).Debug(err)
		return
	}

	for _, p := range s.participants {
		if p == sender {
			continue
		}
		p.Responder.SendMsg(msg)
	}
}

// BroadcastTo sends a message to the given participants but the sender.
func (s *Session) BroadcastTo(sender *Participant, t messages.MsgType, data any, participantIDs ...uint32) {
	participants := s.GetParticipantsByIDs(participantIDs...)
	isParticipantHandled := make(map[uint32]struct{}, len(participantIDs))

	msg, err := messages.MsgFromData(t, 0, data)
	if err != nil {
		logs.WithTag("msg_type", t).Debug(err)
		return
	}

	for _, p := range participants {
		if p == sender {
			continue
		}

		if _, ok := isParticipantHandled[p.ID]; ok {
			continue
		}
		isParticipantHandled[p.ID] = struct{}{}

		p.Responder.SendMsg(msg)
	}
}

type SessionStore struct {
	// The session discovery service where sessions are registered.
	DiscoveryService SessionDiscoveryService

	initOnce sync.Once
	mutex    sync.RWMutex
	sessions map[string]*Session
	ids      SequentialIDGenerator
}

func (s *SessionStore) init() {
	s.sessions = map[string]*Session{}

	if s.DiscoveryService == nil {
		s.DiscoveryService = defaultSessionDiscoveryService{}
	}
}

func (s *SessionStore) NewID() uint32 {
	return s.ids.New()
}

func (s *SessionStore) Add(ctx context.Context, session *Session) error {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[s.GlobalSessionID(session.ID)] = session

	instrumentIncreaseSessionGauge(session.AppKey)
	instrumentCountSession(session.AppKey)
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, session *Session) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.sessions, s.GlobalSessionID(session.ID))
	session.Close()

	s.ids.Reuse(session.ID)

	instrumentDecreaseSessionGauge(session.AppKey)
}

func (s *SessionStore) GetByGlobalID(v string) (*Session, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[v]
	return session, ok
}

func (s *SessionStore) GlobalSessionID(sessionID uint32) string {
	s.initOnce.Do(s.init)
	return fmt.Sprintf("%sx%x", s.DiscoveryService.ServerID(), sessionID)
}

// SessionDiscoveryService is the interface to communicate with a session
// discovery service.
type SessionDiscoveryService interface {
	// Returns the id attributed to the current server.
	ServerID() string
}

type defaultSessionDiscoveryService struct{}

func (s defaultSessionDiscoveryService) ServerID() string {
	return "spatial"
}
