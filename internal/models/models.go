package models

// Client -> server events.
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventFetchMembers   = "fetchMembers"
	EventCodeEdit       = "codeEdit"
	EventToggleEditable = "toggleEditable"
	EventLeaveRoom      = "leaveRoom"
)

// Server -> client events.
const (
	EventJoinSuccess  = "joinSuccess"
	EventJoinError    = "joinError"
	EventCodeUpdate   = "codeUpdate"
	EventSetEditable  = "setEditable"
	EventMembersList  = "membersList"
	EventRoomClosed   = "roomClosed"
	EventActionDenied = "actionDenied"
	EventError        = "error"
)

const (
	AdminName = "Admin"

	MsgRoomExists     = "Room already exists."
	MsgUnableToJoin   = "Unable to join the room."
	MsgRoomIDRequired = "Room id is required."
)

/*** Socket envelope ***/
type WSFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

/*** Room state ***/
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateRoomReq struct {
	RoomID    string `json:"roomId"`
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password"`
}

type JoinRoomReq struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type CodeEditReq struct {
	RoomID  string `json:"roomId"`
	NewCode string `json:"newCode"`
}

type JoinSuccess struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// RoomSummary is the read-only view of a room exposed over HTTP.
type RoomSummary struct {
	RoomID      string `json:"roomId"`
	IsPrivate   bool   `json:"isPrivate"`
	Editable    bool   `json:"editable"`
	MemberCount int    `json:"memberCount"`
}

type RoomStats struct {
	Rooms   int `json:"rooms"`
	Members int `json:"members"`
}

// RoomEvent is published to other instances whenever a room changes lifecycle state.
type RoomEvent struct {
	Type         string `json:"type"` // "room_created","member_joined","member_left","room_closed"
	RoomID       string `json:"roomId"`
	ConnectionID string `json:"connectionId,omitempty"`
	Reason       string `json:"reason,omitempty"`
	MemberCount  int    `json:"memberCount"`
	InstanceID   string `json:"instanceId,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}

const (
	RoomEventCreated      = "room_created"
	RoomEventMemberJoined = "member_joined"
	RoomEventMemberLeft   = "member_left"
	RoomEventClosed       = "room_closed"
)

// Reasons attached to room_closed events.
const (
	CloseReasonEmpty     = "empty"
	CloseReasonAdminLeft = "admin_left"
	CloseReasonAdminGone = "admin_disconnected"
)

/*** HTTP bodies ***/
type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info"`
}

type LoginReq struct {
	Email string `json:"email"`
}

type AccountResp struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

type MetadataReq struct {
	URL string `json:"url"`
}

type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
