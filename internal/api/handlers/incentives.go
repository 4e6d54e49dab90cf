package handlers

import (
	"net/http"
	"ward-pickup-service/internal/api/dto"
	"ward-pickup-service/internal/services"

	"github.com/gorilla/mux"
)

type IncentiveHandler struct {
	Ledger *services.IncentiveLedger
}

// Me returns the caller's own balance.
func (h *IncentiveHandler) Me(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}
	h.writeBalance(w, r, principalID)
}

// ByCitizen returns the balance of the citizen named in the path.
func (h *IncentiveHandler) ByCitizen(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	h.writeBalance(w, r, mux.Vars(r)["citizenId"])
}

func (h *IncentiveHandler) writeBalance(w http.ResponseWriter, r *http.Request, citizenID string) {
	b, err := h.Ledger.Balance(r.Context(), citizenID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewIncentiveResponse(b))
}
