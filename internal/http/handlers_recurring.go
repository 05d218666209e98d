package http

import (
	"net/http"

	"hearth/internal/auth"
	"hearth/internal/core"
)

type recurringRequest struct {
	WalletID   int64  `json:"wallet_id"`
	CategoryID int64  `json:"category_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Note       string `json:"note"`
	Frequency  string `json:"frequency"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	Active     *bool  `json:"active,omitempty"`
}

func (req recurringRequest) toRecurring(sess auth.Session) (core.RecurringTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}

	rt := core.RecurringTransaction{
		FamilyID:   sess.FamilyID,
		WalletID:   req.WalletID,
		CategoryID: req.CategoryID,
		Kind:       core.TxKind(req.Kind),
		Amount:     amount,
		Note:       sanitize(req.Note),
		Frequency:  core.Frequency(req.Frequency),
		StartDate:  start,
		EndDate:    end,
		Active:     true,
	}
	if req.Active != nil {
		rt.Active = *req.Active
	}
	return rt, nil
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	rt, err := req.toRecurring(sess)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rt.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.store.CreateRecurring(r.Context(), rt)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rt.ID = id
	respond(w, http.StatusCreated, viewRecurring(rt))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	rts, err := s.store.ListRecurring(r.Context(), sess.FamilyID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]recurringView, 0, len(rts))
	for _, rt := range rts {
		views = append(views, viewRecurring(rt))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rt, err := s.store.GetRecurring(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewRecurring(rt))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	existing, err := s.store.GetRecurring(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rt, err := req.toRecurring(sess)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rt.ID = id
	rt.LastRunAt = existing.LastRunAt
	if req.Active == nil {
		rt.Active = existing.Active
	}
	if err := rt.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.store.UpdateRecurring(r.Context(), rt); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewRecurring(rt))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.store.DeleteRecurring(r.Context(), sess.FamilyID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
