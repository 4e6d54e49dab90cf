package handlers

import (
	"net/http"
	"ward-pickup-service/internal/api/dto"
	"ward-pickup-service/internal/services"

	"github.com/gorilla/mux"
)

// PickupHandler exposes the pickup request lifecycle.
type PickupHandler struct {
	Lifecycle *services.PickupLifecycle
}

func (h *PickupHandler) Create(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreatePickupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lat, lng := req.Coordinates()
	p, err := h.Lifecycle.Create(r.Context(), principalID, services.CreatePickupInput{
		WasteType:  req.WasteType,
		PickupTime: req.PickupTime,
		Overflow:   req.Overflow,
		Lat:        lat,
		Lng:        lng,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.NewPickupResponse(p))
}

func (h *PickupHandler) List(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}

	pickups, err := h.Lifecycle.List(r.Context(), principalID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := make([]dto.PickupResponse, 0, len(pickups))
	for _, p := range pickups {
		res = append(res, dto.NewPickupResponse(p))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *PickupHandler) Verify(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.VerifyPickupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.Lifecycle.Verify(r.Context(), principalID, mux.Vars(r)["id"], services.VerifyPickupInput{
		Verified:           req.Verified,
		VerificationStatus: req.VerificationStatus,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.VerifyPickupResponse{Pickup: dto.NewPickupResponse(p)})
}

func (h *PickupHandler) Complete(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}

	p, balance, err := h.Lifecycle.Complete(r.Context(), principalID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CompletePickupResponse{
		Pickup:    dto.NewPickupResponse(p),
		Incentive: dto.NewIncentiveResponse(balance),
	})
}

func (h *PickupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}

	p, err := h.Lifecycle.Cancel(r.Context(), principalID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CancelPickupResponse{
		Message: "Pickup cancelled successfully",
		Pickup:  dto.NewPickupResponse(p),
	})
}
