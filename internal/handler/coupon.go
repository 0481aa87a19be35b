package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// defaultListLimit caps the coupon listing page size when the client does
// not ask for one.
const defaultListLimit = 100

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses a non-negative integer query parameter, falling back to
// def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	cp, err := decodeCoupon(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := cp.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.coupons.Create(r.Context(), cp); err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	if err := encodeCoupon(&e, cp); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &e)
}

// listCoupons pages over every stored coupon, inactive ones included, with
// offset pagination via the skip and limit query parameters.
func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	coupons, err := h.coupons.List(r.Context(), skip, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range coupons {
		if err := encodeCoupon(&e, &coupons[i]); err != nil {
			respondError(w, r, err)
			return
		}
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "coupon not found")
		return
	}

	cp, err := h.coupons.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	if err := encodeCoupon(&e, cp); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "coupon not found")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	cp, err := decodeCoupon(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	cp.ID = id
	if err := cp.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.coupons.Update(r.Context(), cp); err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	if err := encodeCoupon(&e, cp); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "coupon not found")
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
