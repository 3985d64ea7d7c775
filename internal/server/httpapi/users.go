package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type tokenBody struct {
	AccessToken string `json:"accessToken"`
}

type registerRequest struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type verifiedBody struct {
	IsVerified bool `json:"isVerified"`
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.svc.Tokens.Issue(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		if errors.Is(err, common.ErrorForbidden) {
			writeJSON(w, http.StatusForbidden, tokenBody{})
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenBody{AccessToken: token})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	u, err := h.svc.Users.Register(r.Context(), services.RegisterInput{Name: req.Name, Email: req.Email, Role: req.Role})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "id", u.ID, "role", u.Role)
	writeJSON(w, http.StatusOK, insertBody{Acknowledged: true, InsertedID: u.ID})
}

func (h *Handler) userRole(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Users.RoleOf(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) verifiedSeller(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Users.IsVerifiedSeller(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, verifiedBody{IsVerified: ok})
}

func (h *Handler) listSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.svc.Users.ListSellers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sellers)
}

func (h *Handler) verifySeller(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Users.VerifySeller(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updateBody{Acknowledged: true, MatchedCount: res.Matched, ModifiedCount: res.Modified})
}

func (h *Handler) deleteSeller(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Users.DeleteSeller(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteBody{Acknowledged: true, DeletedCount: n})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
