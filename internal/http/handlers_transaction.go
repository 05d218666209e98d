package http

import (
	"net/http"
	"time"

	"hearth/internal/auth"
	"hearth/internal/core"
	"hearth/internal/storage"
)

type transactionRequest struct {
	WalletID   int64  `json:"wallet_id"`
	CategoryID int64  `json:"category_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Note       string `json:"note,omitempty"`
	GoalID     int64  `json:"goal_id,omitempty"`
}

func (req transactionRequest) toTransaction(sess auth.Session) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		FamilyID:   sess.FamilyID,
		WalletID:   req.WalletID,
		CategoryID: req.CategoryID,
		UserID:     sess.UserID,
		Kind:       core.TxKind(req.Kind),
		Amount:     amount,
		Date:       date,
		Note:       sanitize(req.Note),
		GoalID:     req.GoalID,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	t, err := req.toTransaction(sess)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t.ID = id
	respond(w, http.StatusCreated, viewTransaction(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	filter, err := txFilterFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	txs, err := s.transactions.List(r.Context(), sess.FamilyID, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewTransactions(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := s.transactions.Get(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewTransaction(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	t, err := req.toTransaction(sess)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t.ID = id

	if err := s.transactions.Update(r.Context(), t); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewTransaction(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.transactions.Delete(r.Context(), sess.FamilyID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func txFilterFromQuery(r *http.Request) (storage.TxFilter, error) {
	var f storage.TxFilter
	var err error

	if f.Year, err = queryInt(r, "year"); err != nil {
		return f, err
	}
	if f.Month, err = queryInt(r, "month"); err != nil {
		return f, err
	}
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		return f, core.ErrInvalidMonth
	}
	if f.Month != 0 && f.Year == 0 {
		f.Year = time.Now().Year()
	}
	if f.WalletID, err = queryID(r, "wallet_id"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryID(r, "category_id"); err != nil {
		return f, err
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		f.Kind = core.TxKind(kind)
		if err := f.Kind.Validate(); err != nil {
			return f, err
		}
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	return f, nil
}
