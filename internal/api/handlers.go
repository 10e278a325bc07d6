package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/teamchat/internal/server"
	"github.com/npezzotti/teamchat/internal/types"
)

type CreateRoomRequest struct {
	Name       string `json:"name" validate:"required"`
	Visibility string `json:"visibility" validate:"required,oneof=public private"`
	MemberIds  []int  `json:"member_ids"`
}

type AddMemberRequest struct {
	UserId int `json:"user_id" validate:"required"`
}

type PostMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type UpdateMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type CreateDMRequest struct {
	UserId int `json:"user_id" validate:"required"`
}

func (s *TeamChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// currentUserId pulls the authenticated user id set by authMiddleware.
func (s *TeamChatApp) currentUserId(w http.ResponseWriter, r *http.Request) (int, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, false
	}

	return userId, true
}

func (s *TeamChatApp) pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, false
	}

	return v, true
}

func (s *TeamChatApp) listRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	rooms, err := s.chat.RoomsForUser(userId)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *TeamChatApp) listJoinableRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	rooms, err := s.chat.JoinableRooms(userId)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *TeamChatApp) getRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	room, err := s.chat.RoomWithMembers(userId, roomId)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}

func (s *TeamChatApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := validate.Struct(req); err != nil {
		errResp := NewValidationError(err.Error())
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.chat.CreateRoom(user.AccountId, userId, req.Name, types.Visibility(req.Visibility), req.MemberIds)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, room)
}

func (s *TeamChatApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := s.chat.DeleteRoom(userId, roomId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *TeamChatApp) joinRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	membership, err := s.chat.Join(userId, roomId)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, membership)
}

func (s *TeamChatApp) addMember(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := validate.Struct(req); err != nil {
		errResp := NewValidationError(err.Error())
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	membership, err := s.chat.AddMember(userId, roomId, req.UserId)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, membership)
}

func (s *TeamChatApp) leaveRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := s.chat.Leave(userId, roomId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *TeamChatApp) removeMember(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	membershipId, ok := s.pathInt(w, r, "membershipId")
	if !ok {
		return
	}

	if err := s.chat.RemoveMember(userId, roomId, membershipId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *TeamChatApp) listMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	var limit int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	messages, err := s.chat.Messages(userId, roomId, limit)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *TeamChatApp) postMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.chat.PostMessage(roomId, userId, req.Body)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *TeamChatApp) updateMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	messageId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.chat.UpdateMessage(userId, messageId, req.Body)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, msg)
}

func (s *TeamChatApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	messageId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := s.chat.DeleteMessage(userId, messageId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *TeamChatApp) markRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	roomId, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := s.chat.MarkRead(userId, roomId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *TeamChatApp) findOrCreateDM(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	var req CreateDMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := validate.Struct(req); err != nil {
		errResp := NewValidationError(err.Error())
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.chat.FindOrCreateDM(userId, req.UserId)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}

func (s *TeamChatApp) searchUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")

	var limit int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	users, err := s.chat.SearchPeers(userId, query, limit)
	if err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *TeamChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.currentUserId(w, r)
	if !ok {
		return
	}

	dbUser, err := s.db.GetUserById(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(userResponse(dbUser), conn, s.hub, s.chat, s.log)

	s.hub.RegisterChan <- client
	go client.Write()
	go client.Read()
}
