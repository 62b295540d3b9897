package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, v *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getUser)))
	mux.Handle("/users/me/purchases", authMw(http.HandlerFunc(h.getPurchases)))
	mux.Handle("/transformations", authMw(http.HandlerFunc(h.startTransformation)))
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	clerkID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || clerkID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.Get(r.Context(), clerkID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

// startTransformation debits one credit for the named transformation. The
// transformation itself runs in the media pipeline, not here.
func (h *UserHandler) startTransformation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	clerkID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || clerkID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.TransformationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.SpendTransformation(r.Context(), clerkID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransformationResponseDTO{
		Kind:             req.Kind,
		RemainingCredits: user.CreditBalance,
	})
}

func (h *UserHandler) getPurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	clerkID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || clerkID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	purchases, err := h.userService.PurchaseHistory(r.Context(), clerkID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to retrieve purchases: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]dto.PurchaseResponseDTO, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, dto.PurchaseResponseDTO{
			PaymentID: p.PaymentID,
			Amount:    p.Amount,
			Credits:   p.Credits,
			Plan:      p.Plan,
			CreatedAt: p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func userResponse(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		ClerkID:       u.ClerkID,
		Email:         u.Email,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhotoURL:      u.PhotoURL,
		PlanID:        u.PlanID,
		CreditBalance: u.CreditBalance,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRepositoryError maps the repository taxonomy onto HTTP statuses. The
// page layer turns 503 into "please retry".
func writeRepositoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrTimeout):
		http.Error(w, "store timeout, please retry", http.StatusServiceUnavailable)
	case errors.Is(err, repository.ErrDuplicateKey):
		http.Error(w, "conflict", http.StatusConflict)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
