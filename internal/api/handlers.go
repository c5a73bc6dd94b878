package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dishant0406/lazyweb-backend/internal/auth"
	"github.com/dishant0406/lazyweb-backend/internal/metrics"
	"github.com/dishant0406/lazyweb-backend/internal/models"
	"github.com/dishant0406/lazyweb-backend/internal/repositories"
	"github.com/dishant0406/lazyweb-backend/internal/session"
	"github.com/dishant0406/lazyweb-backend/internal/utils"
)

type roomCoordinator interface {
	CreateRoom(p session.Subscriber, req models.CreateRoomReq)
	JoinRoom(p session.Subscriber, req models.JoinRoomReq)
	FetchMembers(p session.Subscriber, roomID string)
	CodeEdit(p session.Subscriber, req models.CodeEditReq)
	ToggleEditable(p session.Subscriber, roomID string)
	LeaveRoom(p session.Subscriber, roomID string)
	Disconnect(p session.Subscriber)
	Snapshot(roomID string) (models.RoomSummary, bool)
	Stats() models.RoomStats
}

type accountService interface {
	SendMagicLink(email string) (string, error)
	Verify(token string) (*models.User, error)
	MakeToken(user *models.User) (string, error)
}

type metadataFetcher interface {
	GetMetaData(ctx context.Context, url string) (models.Metadata, error)
}

type Handlers struct {
	log          *zap.Logger
	rooms        roomCoordinator
	accounts     accountService
	meta         metadataFetcher
	upgrader     websocket.Upgrader
	clientBuffer int
}

type Deps struct {
	Rooms          roomCoordinator
	Accounts       accountService
	Metadata       metadataFetcher
	AllowedOrigins []string
	ClientBuffer   int
}

func NewHandlers(log *zap.Logger, deps Deps) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		log:          log,
		rooms:        deps.Rooms,
		accounts:     deps.Accounts,
		meta:         deps.Metadata,
		upgrader:     websocket.Upgrader{CheckOrigin: originChecker(deps.AllowedOrigins)},
		clientBuffer: deps.ClientBuffer,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

/*** Rooms: read-only HTTP views ***/
func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.rooms.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "room not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handlers) RoomStats(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.rooms.Stats())
}

/*** Rooms WebSocket: one connection per participant tab ***/
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *Handlers) RoomsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn, h.clientBuffer)
	go client.WritePump()
	metrics.SocketOpened()
	h.log.Info("client connected", zap.String("connectionId", client.ID()))

	defer func() {
		h.rooms.Disconnect(client)
		client.Close()
		metrics.SocketClosed()
		h.log.Info("client disconnected", zap.String("connectionId", client.ID()))
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				client.Send(errFrame("invalid_payload"))
				continue
			}
			return
		}
		h.dispatch(client, frame)
	}
}

func (h *Handlers) dispatch(client *session.Client, frame inboundFrame) {
	switch frame.Type {
	case models.EventCreateRoom:
		var req models.CreateRoomReq
		if !h.decode(client, frame.Data, &req) {
			return
		}
		h.rooms.CreateRoom(client, req)

	case models.EventJoinRoom:
		var req models.JoinRoomReq
		if !h.decode(client, frame.Data, &req) {
			return
		}
		h.rooms.JoinRoom(client, req)

	case models.EventCodeEdit:
		var req models.CodeEditReq
		if !h.decode(client, frame.Data, &req) {
			return
		}
		h.rooms.CodeEdit(client, req)

	case models.EventFetchMembers:
		if roomID, ok := h.roomID(client, frame.Data); ok {
			h.rooms.FetchMembers(client, roomID)
		}

	case models.EventToggleEditable:
		if roomID, ok := h.roomID(client, frame.Data); ok {
			h.rooms.ToggleEditable(client, roomID)
		}

	case models.EventLeaveRoom:
		if roomID, ok := h.roomID(client, frame.Data); ok {
			h.rooms.LeaveRoom(client, roomID)
		}

	default:
		client.Send(errFrame("unknown_type"))
	}
}

func (h *Handlers) decode(client *session.Client, data json.RawMessage, out any) bool {
	if len(data) == 0 || string(data) == "null" {
		client.Send(errFrame("invalid_payload"))
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		h.log.Debug("invalid socket payload", zap.String("connectionId", client.ID()), zap.Error(err))
		client.Send(errFrame("invalid_payload"))
		return false
	}
	return true
}

// roomID accepts either a bare string payload or {"roomId": "..."}.
func (h *Handlers) roomID(client *session.Client, data json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, true
	}
	var obj struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.RoomID != "" {
		return obj.RoomID, true
	}
	client.Send(errFrame("invalid_payload"))
	return "", false
}

/*** Accounts ***/
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.accounts.SendMagicLink(req.Email); err != nil {
		if errors.Is(err, auth.ErrEmailRequired) {
			utils.WriteError(w, http.StatusBadRequest, "You didn't enter a valid email address.")
			return
		}
		h.log.Error("magic link failed", zap.Error(err))
		utils.WriteError(w, http.StatusBadGateway, "Can't send email.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "Magic link sent."})
}

func (h *Handlers) Account(w http.ResponseWriter, r *http.Request) {
	tok, err := auth.TokenFromRequest(r)
	if err != nil {
		utils.WriteError(w, http.StatusForbidden, "Can't verify user.")
		return
	}
	user, err := h.accounts.Verify(tok)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		utils.WriteError(w, http.StatusForbidden, "Token has expired.")
		return
	case errors.Is(err, repositories.ErrUserNotFound):
		utils.WriteError(w, http.StatusForbidden, "No User Found")
		return
	case err != nil:
		utils.WriteError(w, http.StatusForbidden, "Invalid auth credentials.")
		return
	}

	sessionToken, err := h.accounts.MakeToken(user)
	if err != nil {
		h.log.Error("failed to sign session token", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.AccountResp{Email: user.Email, IsAdmin: user.IsAdmin, Token: sessionToken})
}

/*** Metadata ***/
func (h *Handlers) Metadata(w http.ResponseWriter, r *http.Request) {
	var req models.MetadataReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"err": "invalid request body"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	md, err := h.meta.GetMetaData(ctx, req.URL)
	if err != nil {
		h.log.Warn("metadata lookup failed", zap.String("url", req.URL), zap.Error(err))
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"err": err.Error()})
		return
	}
	utils.WriteJSON(w, http.StatusOK, md)
}

func errFrame(msg string) models.WSFrame { return models.WSFrame{Type: models.EventError, Data: msg} }

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimSpace(o), origin) {
				return true
			}
		}
		return false
	}
}
