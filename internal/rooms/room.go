package rooms

import "github.com/dishant0406/lazyweb-backend/internal/models"

// Room is the state of one active room. Content and metadata live in the
// same value so a room can never exist with only one of them.
type Room struct {
	ID        string
	content   string
	isPrivate bool
	password  string
	adminID   string
	editable  bool
	members   []models.Member
}

func newRoom(id string, isPrivate bool, password, adminID string) *Room {
	return &Room{
		ID:        id,
		isPrivate: isPrivate,
		password:  password,
		adminID:   adminID,
		editable:  true,
		members:   []models.Member{{ID: adminID, Name: models.AdminName}},
	}
}

// admits reports whether password opens the room.
func (r *Room) admits(password string) bool {
	return !r.isPrivate || r.password == password
}

func (r *Room) isAdmin(connID string) bool { return r.adminID == connID }

func (r *Room) canEdit(connID string) bool { return r.editable || r.isAdmin(connID) }

func (r *Room) hasMember(connID string) bool {
	for _, m := range r.members {
		if m.ID == connID {
			return true
		}
	}
	return false
}

func (r *Room) addMember(connID, name string) {
	r.members = append(r.members, models.Member{ID: connID, Name: name})
}

// removeMember drops connID and reports whether it was present.
func (r *Room) removeMember(connID string) bool {
	for i, m := range r.members {
		if m.ID == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// memberList returns a copy safe to hand to subscribers.
func (r *Room) memberList() []models.Member {
	out := make([]models.Member, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Room) summary() models.RoomSummary {
	return models.RoomSummary{
		RoomID:      r.ID,
		IsPrivate:   r.isPrivate,
		Editable:    r.editable,
		MemberCount: len(r.members),
	}
}
