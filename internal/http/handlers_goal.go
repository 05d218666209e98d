package http

import (
	"net/http"

	"hearth/internal/auth"
	"hearth/internal/core"
)

type goalRequest struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	Deadline string `json:"deadline,omitempty"`
}

type contributionRequest struct {
	WalletID   int64  `json:"wallet_id"`
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Note       string `json:"note,omitempty"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	target, err := parseAmount(req.Target)
	if err != nil {
		respondError(w, r, err)
		return
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		respondError(w, r, err)
		return
	}

	g := core.Goal{
		FamilyID: sess.FamilyID,
		Name:     sanitize(req.Name),
		Target:   target,
		Deadline: deadline,
	}

	id, err := s.goals.Create(r.Context(), g)
	if err != nil {
		respondError(w, r, err)
		return
	}
	g.ID = id
	respond(w, http.StatusCreated, viewGoal(g))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	goals, err := s.goals.List(r.Context(), sess.FamilyID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, viewGoal(g))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	g, err := s.goals.Get(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewGoal(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	target, err := parseAmount(req.Target)
	if err != nil {
		respondError(w, r, err)
		return
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		respondError(w, r, err)
		return
	}

	g, err := s.goals.Get(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	g.Name = sanitize(req.Name)
	g.Target = target
	g.Deadline = deadline

	if err := s.goals.Update(r.Context(), g); err != nil {
		respondError(w, r, err)
		return
	}

	// Re-read: the achieved flag may flip when the target changes.
	updated, err := s.goals.Get(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewGoal(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.goals.Delete(r.Context(), sess.FamilyID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	goalID, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}

	txID, err := s.goals.Contribute(r.Context(), sess.FamilyID, goalID,
		req.WalletID, req.CategoryID, sess.UserID, amount, date, sanitize(req.Note))
	if err != nil {
		respondError(w, r, err)
		return
	}

	g, err := s.goals.Get(r.Context(), sess.FamilyID, goalID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, struct {
		TransactionID int64    `json:"transaction_id"`
		Goal          goalView `json:"goal"`
	}{TransactionID: txID, Goal: viewGoal(g)})
}
