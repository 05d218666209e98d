package http

import (
	"net/http"
	"time"

	"hearth/internal/auth"
)

type createFamilyRequest struct {
	Name string `json:"name"`
}

type joinFamilyRequest struct {
	Token string `json:"token"`
}

type createInviteRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req createFamilyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	family, err := s.families.Create(r.Context(), sanitize(req.Name), sess.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// The session token carries family and role, so reissue it.
	user, err := s.store.GetUserByID(r.Context(), sess.UserID)
	if err == nil {
		s.issueSession(w, r, user)
	}
	respond(w, http.StatusCreated, viewFamily(family))
}

func (s *Server) handleJoinFamily(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req joinFamilyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Token == "" {
		badRequest(w, "missing token")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	family, err := s.families.Accept(r.Context(), req.Token, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if joined, err := s.store.GetUserByID(r.Context(), sess.UserID); err == nil {
		s.issueSession(w, r, joined)
	}
	respond(w, http.StatusOK, viewFamily(family))
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	family, err := s.families.Get(r.Context(), sess.FamilyID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewFamily(family))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	members, err := s.families.Members(r.Context(), sess.FamilyID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]userView, 0, len(members))
	for _, m := range members {
		views = append(views, viewUser(m))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.families.RemoveMember(r.Context(), sess.FamilyID, id, sess.Role); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req createInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	inv, err := s.families.Invite(r.Context(), sess.FamilyID, sess.Role, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, viewInvite(inv, time.Now()))
}

func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	invites, err := s.families.PendingInvites(r.Context(), sess.FamilyID, sess.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := time.Now()
	views := make([]inviteView, 0, len(invites))
	for _, inv := range invites {
		views = append(views, viewInvite(inv, now))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleRevokeInvite(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.families.Revoke(r.Context(), sess.FamilyID, id, sess.Role); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
