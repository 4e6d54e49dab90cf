package handlers

import (
	"net/http"
	"ward-pickup-service/internal/api/dto"
	"ward-pickup-service/internal/services"
)

type RouteHandler struct {
	Engine *services.RouteEngine
}

// Generate claims the caller's ward work and returns the ordered shift route.
func (h *RouteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principal(w, r)
	if !ok {
		return
	}

	route, err := h.Engine.GenerateShiftRoute(r.Context(), principalID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route, services.RouteExplanation))
}
