package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/approval-gate/internal/domain"
	"github.com/msomdec/approval-gate/internal/service"
)

const internalErrorMessage = "An unexpected error occurred. Please try again."

// AccountHandler handles registration, approval and login requests.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleLogin processes a JSON login request.
// POST /login
// Request:  {"username":"...","password":"..."}
// Response: {"token":"...","userId":"...","username":"...","role":"..."}
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, domain.ErrPendingApproval):
			writeError(w, http.StatusForbidden, "Account is pending admin approval.")
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "Invalid username or password.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("login user", "error", err)
			writeError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginDTO{
		Token:    res.Token,
		UserID:   res.UserID,
		Username: res.Username,
		Role:     string(res.Role),
	})
}

// HandleRegister processes a JSON registration request.
// POST /register
// Request:  {"username":"...","email":"...","phoneNumber":"...","password":"..."}
// Response: {"message":"registration pending approval"}
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	_, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			writeError(w, http.StatusBadRequest, "Username or phone number is already registered.")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	writeMessage(w, http.StatusCreated, "registration pending approval")
}

// HandlePendingUsers lists accounts awaiting approval.
// GET /pending-users (admin)
// Response: [{...}, ...]
func (h *AccountHandler) HandlePendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListPending(r.Context())
	if err != nil {
		slog.Error("list pending users", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

// HandleApprove approves a pending account.
// PUT /approve/{id} (admin)
// Response: {"message":"user approved"}
func (h *AccountHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, err := h.accounts.Approve(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		slog.Error("approve user", "error", err, "user_id", id)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	if claims := ClaimsFromContext(r.Context()); claims != nil {
		slog.Info("approval recorded", "user_id", user.ID, "approved_by", claims.UserID)
	}
	writeMessage(w, http.StatusOK, "user approved")
}
