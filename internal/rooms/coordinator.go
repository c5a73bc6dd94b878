package rooms

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dishant0406/lazyweb-backend/internal/metrics"
	"github.com/dishant0406/lazyweb-backend/internal/models"
	"github.com/dishant0406/lazyweb-backend/internal/session"
)

// Broadcaster fans frames out to the connections subscribed to a room.
type Broadcaster interface {
	Subscribe(topic string, s session.Subscriber)
	Unsubscribe(topic string, s session.Subscriber)
	Publish(topic string, frame models.WSFrame)
	PublishExcept(topic string, sender session.Subscriber, frame models.WSFrame)
	Drop(topic string)
}

// EventSink receives room lifecycle events. Publish must not block.
type EventSink interface {
	Publish(evt models.RoomEvent)
}

type noopSink struct{}

func (noopSink) Publish(models.RoomEvent) {}

type Option func(*Coordinator)

// WithEventSink forwards lifecycle events to sink.
func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) {
		if sink != nil {
			c.events = sink
		}
	}
}

// WithDeniedReplies makes ignored privileged actions answer the sender with
// an actionDenied frame instead of staying silent.
func WithDeniedReplies(enabled bool) Option {
	return func(c *Coordinator) { c.reportDenied = enabled }
}

// Coordinator owns every active room. Each operation runs to completion under
// mu, so handlers never interleave on room state.
type Coordinator struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	groups       Broadcaster
	events       EventSink
	log          *zap.Logger
	reportDenied bool
}

func NewCoordinator(log *zap.Logger, groups Broadcaster, opts ...Option) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		rooms:  make(map[string]*Room),
		groups: groups,
		events: noopSink{},
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) CreateRoom(p session.Subscriber, req models.CreateRoomReq) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.RoomID == "" {
		p.Send(frame(models.EventJoinError, models.MsgRoomIDRequired))
		metrics.RoomEvent(models.EventCreateRoom, metrics.OutcomeRejected)
		return
	}
	if _, exists := c.rooms[req.RoomID]; exists {
		p.Send(frame(models.EventJoinError, models.MsgRoomExists))
		metrics.RoomEvent(models.EventCreateRoom, metrics.OutcomeRejected)
		return
	}

	room := newRoom(req.RoomID, req.IsPrivate, req.Password, p.ID())
	c.rooms[room.ID] = room
	c.groups.Subscribe(room.ID, p)

	c.log.Info("room created",
		zap.String("roomId", room.ID),
		zap.String("connectionId", p.ID()),
		zap.Bool("private", room.isPrivate))
	p.Send(frame(models.EventJoinSuccess, models.JoinSuccess{ID: p.ID(), RoomID: room.ID, Name: models.AdminName}))

	c.emit(models.RoomEventCreated, room, p.ID(), "")
	metrics.RoomEvent(models.EventCreateRoom, metrics.OutcomeOK)
	c.updateGauges()
}

func (c *Coordinator) JoinRoom(p session.Subscriber, req models.JoinRoomReq) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[req.RoomID]
	if !ok || !room.admits(req.Password) {
		c.log.Debug("join rejected", zap.String("roomId", req.RoomID), zap.Bool("exists", ok))
		p.Send(frame(models.EventJoinError, models.MsgUnableToJoin))
		metrics.RoomEvent(models.EventJoinRoom, metrics.OutcomeRejected)
		return
	}

	rejoin := room.hasMember(p.ID())
	name := req.Name
	if rejoin {
		name = memberName(room, p.ID())
	} else {
		c.groups.Subscribe(room.ID, p)
		room.addMember(p.ID(), name)
	}

	p.Send(frame(models.EventJoinSuccess, models.JoinSuccess{ID: p.ID(), RoomID: room.ID, Name: name}))
	p.Send(frame(models.EventCodeUpdate, room.content))
	p.Send(frame(models.EventSetEditable, room.editable))

	if !rejoin {
		c.groups.PublishExcept(room.ID, p, frame(models.EventMembersList, room.memberList()))
		c.log.Info("room joined",
			zap.String("roomId", room.ID),
			zap.String("connectionId", p.ID()),
			zap.String("name", name))
		c.emit(models.RoomEventMemberJoined, room, p.ID(), "")
	}
	metrics.RoomEvent(models.EventJoinRoom, metrics.OutcomeOK)
	c.updateGauges()
}

func (c *Coordinator) FetchMembers(p session.Subscriber, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isAdmin(p.ID()) {
		c.deny(p, models.EventFetchMembers, "only the room admin can list members")
		return
	}
	p.Send(frame(models.EventMembersList, room.memberList()))
	metrics.RoomEvent(models.EventFetchMembers, metrics.OutcomeOK)
}

// CodeEdit replaces the room content (last write wins) and relays it to
// everyone but the sender.
func (c *Coordinator) CodeEdit(p session.Subscriber, req models.CodeEditReq) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[req.RoomID]
	if !ok || !room.canEdit(p.ID()) {
		c.deny(p, models.EventCodeEdit, "room is read-only")
		return
	}
	room.content = req.NewCode
	c.groups.PublishExcept(room.ID, p, frame(models.EventCodeUpdate, req.NewCode))
	metrics.RoomEvent(models.EventCodeEdit, metrics.OutcomeOK)
}

func (c *Coordinator) ToggleEditable(p session.Subscriber, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isAdmin(p.ID()) {
		c.deny(p, models.EventToggleEditable, "only the room admin can change editing")
		return
	}
	room.editable = !room.editable
	c.groups.Publish(room.ID, frame(models.EventSetEditable, room.editable))
	c.log.Info("room editability changed", zap.String("roomId", room.ID), zap.Bool("editable", room.editable))
	metrics.RoomEvent(models.EventToggleEditable, metrics.OutcomeOK)
}

func (c *Coordinator) LeaveRoom(p session.Subscriber, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.removeMember(p.ID()) {
		metrics.RoomEvent(models.EventLeaveRoom, metrics.OutcomeIgnored)
		return
	}
	c.groups.Unsubscribe(room.ID, p)

	switch {
	case len(room.members) == 0:
		c.destroy(room, p.ID(), models.CloseReasonEmpty)
	case room.isAdmin(p.ID()):
		c.groups.PublishExcept(room.ID, p, frame(models.EventRoomClosed, nil))
		c.destroy(room, p.ID(), models.CloseReasonAdminLeft)
	default:
		c.groups.PublishExcept(room.ID, p, frame(models.EventMembersList, room.memberList()))
		c.emit(models.RoomEventMemberLeft, room, p.ID(), "")
	}
	metrics.RoomEvent(models.EventLeaveRoom, metrics.OutcomeOK)
	c.updateGauges()
}

// Disconnect cleans up after a transport-level teardown: rooms administered
// by p close, rooms where p was a plain member lose it.
func (c *Coordinator) Disconnect(p session.Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, room := range c.rooms {
		if room.isAdmin(p.ID()) {
			c.groups.PublishExcept(room.ID, p, frame(models.EventRoomClosed, nil))
			room.removeMember(p.ID())
			c.destroy(room, p.ID(), models.CloseReasonAdminGone)
			continue
		}
		if !room.removeMember(p.ID()) {
			continue
		}
		c.groups.Unsubscribe(room.ID, p)
		if len(room.members) == 0 {
			c.destroy(room, p.ID(), models.CloseReasonEmpty)
			continue
		}
		c.groups.PublishExcept(room.ID, p, frame(models.EventMembersList, room.memberList()))
		c.emit(models.RoomEventMemberLeft, room, p.ID(), "")
	}
	c.updateGauges()
}

// Snapshot returns the public view of a room.
func (c *Coordinator) Snapshot(roomID string) (models.RoomSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.rooms[roomID]
	if !ok {
		return models.RoomSummary{}, false
	}
	return room.summary(), true
}

func (c *Coordinator) Stats() models.RoomStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

func (c *Coordinator) statsLocked() models.RoomStats {
	stats := models.RoomStats{Rooms: len(c.rooms)}
	for _, room := range c.rooms {
		stats.Members += len(room.members)
	}
	return stats
}

// destroy removes the room and its broadcast group. Callers hold mu.
func (c *Coordinator) destroy(room *Room, connID, reason string) {
	delete(c.rooms, room.ID)
	c.groups.Drop(room.ID)
	c.log.Info("room closed",
		zap.String("roomId", room.ID),
		zap.String("connectionId", connID),
		zap.String("reason", reason))
	c.emit(models.RoomEventClosed, room, connID, reason)
}

func (c *Coordinator) deny(p session.Subscriber, event, msg string) {
	metrics.RoomEvent(event, metrics.OutcomeIgnored)
	if c.reportDenied {
		p.Send(frame(models.EventActionDenied, msg))
	}
}

func (c *Coordinator) emit(kind string, room *Room, connID, reason string) {
	c.events.Publish(models.RoomEvent{
		Type:         kind,
		RoomID:       room.ID,
		ConnectionID: connID,
		Reason:       reason,
		MemberCount:  len(room.members),
	})
}

func (c *Coordinator) updateGauges() {
	stats := c.statsLocked()
	metrics.SetRoomGauges(stats.Rooms, stats.Members)
}

func memberName(room *Room, connID string) string {
	for _, m := range room.members {
		if m.ID == connID {
			return m.Name
		}
	}
	return ""
}

func frame(kind string, data interface{}) models.WSFrame {
	return models.WSFrame{Type: kind, Data: data}
}
