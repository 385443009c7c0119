package handler

import (
	"errors"
	"net/http"

	"plandera/internal/api/v1/dto"
	"plandera/internal/plan"
	"plandera/internal/service"
)

type UserHandler struct {
	userService service.UserService
	catalog     *plan.Catalog
}

func NewUserHandler(userService service.UserService, catalog *plan.Catalog) *UserHandler {
	return &UserHandler{userService: userService, catalog: catalog}
}

// RegisterRoutes mounts v1 user and plan routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(allow(http.MethodGet, h.getUser)))
	mux.Handle("/plans", allow(http.MethodGet, h.listPlans))
}

// getUser godoc
// @Summary Get the signed-in user
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 404 {object} dto.ErrorResponse "user not found"
// @Router /users/me [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to fetch user")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.UserResponseDTO{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		HasStripeCustomer: user.CustomerID() != "",
		CreatedAt:         user.CreatedAt,
	})
}

// listPlans godoc
// @Summary List purchasable plans
// @Tags plans
// @Produce json
// @Success 200 {array} dto.PlanDTO
// @Router /plans [get]
func (h *UserHandler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.catalog.All()
	resp := make([]dto.PlanDTO, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, dto.PlanDTO{
			Code:        p.Code,
			Name:        p.Name,
			AmountCents: p.AmountCents,
			Interval:    p.Interval,
			PerSeat:     p.PerSeat,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
