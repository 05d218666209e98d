package http

import (
	"net/http"

	"hearth/internal/auth"
	"hearth/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	cat := core.Category{
		FamilyID: sess.FamilyID,
		Name:     sanitize(req.Name),
		Kind:     core.TxKind(req.Kind),
	}
	if err := cat.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.store.CreateCategory(r.Context(), cat)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cat.ID = id
	respond(w, http.StatusCreated, viewCategory(cat))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	cats, err := s.store.ListCategories(r.Context(), sess.FamilyID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, viewCategory(c))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	cat, err := s.store.GetCategory(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	// Kind is fixed once transactions may reference the category.
	cat.Name = sanitize(req.Name)
	if err := cat.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.store.UpdateCategory(r.Context(), cat); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewCategory(cat))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.store.DeleteCategory(r.Context(), sess.FamilyID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
