package http

import (
	"net/http"
	"strings"
	"time"

	"hearth/internal/auth"
	"hearth/internal/core"
)

type walletRequest struct {
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initial_balance,omitempty"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req walletRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	wallet := core.Wallet{
		FamilyID: sess.FamilyID,
		Name:     sanitize(req.Name),
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if req.InitialBalance != "" {
		balance, err := parseAmount(req.InitialBalance)
		if err != nil {
			respondError(w, r, err)
			return
		}
		wallet.Balance = balance
	}
	if err := wallet.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.store.CreateWallet(r.Context(), wallet, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	wallet.ID = id
	respond(w, http.StatusCreated, viewWallet(wallet))
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	wallets, err := s.store.ListWallets(r.Context(), sess.FamilyID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]walletView, 0, len(wallets))
	for _, wallet := range wallets {
		views = append(views, viewWallet(wallet))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	wallet, err := s.store.GetWallet(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewWallet(wallet))
}

func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req walletRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	wallet, err := s.store.GetWallet(r.Context(), sess.FamilyID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	wallet.Name = sanitize(req.Name)
	wallet.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := wallet.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.store.UpdateWallet(r.Context(), wallet); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewWallet(wallet))
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.store.DeleteWallet(r.Context(), sess.FamilyID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
