// Package handler exposes the coupon API over HTTP. Request and response
// bodies are encoded with jx; monetary values are rounded to two decimal
// places at this boundary only.
package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/coupon-engine/internal/domain/coupon"
	"github.com/xenking/coupon-engine/internal/engine"
)

// maxBodyBytes caps request body size.
const maxBodyBytes = 1 << 20

// Handler implements the coupon API endpoints, delegating business logic to
// the coupon repository and the discount engine.
type Handler struct {
	coupons coupon.Repository
	engine  *engine.Service
}

// New constructs a Handler with the required dependencies.
func New(coupons coupon.Repository, eng *engine.Service) *Handler {
	return &Handler{
		coupons: coupons,
		engine:  eng,
	}
}

// Register mounts all API routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/coupons", h.createCoupon)
	mux.HandleFunc("GET /api/coupons", h.listCoupons)
	mux.HandleFunc("GET /api/coupons/{id}", h.getCoupon)
	mux.HandleFunc("PUT /api/coupons/{id}", h.updateCoupon)
	mux.HandleFunc("DELETE /api/coupons/{id}", h.deleteCoupon)
	mux.HandleFunc("POST /api/applicable-coupons", h.applicableCoupons)
	mux.HandleFunc("POST /api/apply-coupon/{id}", h.applyCoupon)
}

// readBody reads the full request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	return body, nil
}
