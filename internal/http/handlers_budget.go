package http

import (
	"net/http"
	"time"

	"hearth/internal/auth"
	"hearth/internal/core"
)

type budgetRequest struct {
	CategoryID int64  `json:"category_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Limit      string `json:"limit"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	limit, err := parseAmount(req.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	b := core.Budget{
		FamilyID:   sess.FamilyID,
		CategoryID: req.CategoryID,
		Year:       req.Year,
		Month:      req.Month,
		Limit:      limit,
	}

	id, err := s.budgets.Create(r.Context(), b)
	if err != nil {
		respondError(w, r, err)
		return
	}
	b.ID = id
	respond(w, http.StatusCreated, viewBudget(b))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	year, err := queryInt(r, "year")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	budgets, err := s.budgets.List(r.Context(), sess.FamilyID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, viewBudget(b))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := s.budgets.Get(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewBudget(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	limit, err := parseAmount(req.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	b, err := s.budgets.Get(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	b.Limit = limit

	if err := s.budgets.UpdateLimit(r.Context(), b); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewBudget(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.budgets.Delete(r.Context(), sess.FamilyID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	st, err := s.budgets.Status(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewBudgetStatus(st))
}

func (s *Server) handleBudgetStatuses(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	year, month, err := yearMonth(r, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	statuses, err := s.budgets.StatusForMonth(r.Context(), sess.FamilyID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]budgetStatusView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, viewBudgetStatus(st))
	}
	respond(w, http.StatusOK, views)
}
