package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type productRequest struct {
	CategoryID    string `json:"categoryId"`
	SellerName    string `json:"sellerName"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	Location      string `json:"location"`
	Price         amount `json:"price"`
	OriginalPrice amount `json:"originalPrice"`
	YearsOfUse    count  `json:"yearsOfUse"`
	Condition     string `json:"condition"`
	Phone         string `json:"phone"`
	Description   string `json:"description"`
}

func (req productRequest) input() services.ProductInput {
	return services.ProductInput{
		CategoryID:    req.CategoryID,
		SellerName:    req.SellerName,
		Name:          req.Name,
		Image:         req.Image,
		Location:      req.Location,
		Price:         float64(req.Price),
		OriginalPrice: float64(req.OriginalPrice),
		YearsOfUse:    int(req.YearsOfUse),
		Condition:     req.Condition,
		Phone:         req.Phone,
		Description:   req.Description,
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.svc.Products.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, insertBody{Acknowledged: true, InsertedID: p.ID})
}

// getProduct serves GET /products?productId=.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("productId")
	if id == "" {
		writeError(w, r, h.logger, fmt.Errorf("%w: productId is required", common.ErrorValidation))
		return
	}

	p, err := h.svc.Products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listByCategory(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.Products.ListByCategory(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) listAdvertised(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.Products.ListAdvertised(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) listSellerProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.Products.ListBySeller(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) advertiseProduct(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Products.Advertise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updateBody{Acknowledged: true, MatchedCount: res.Matched, ModifiedCount: res.Modified})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Products.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteBody{Acknowledged: true, DeletedCount: n})
}

func (h *Handler) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	up, err := h.svc.Images.UploadURL(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}
