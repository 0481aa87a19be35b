package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// applicableCoupons lists every stored coupon applicable to the posted cart,
// with the discount each would yield. Results keep storage order; picking the
// best one is the caller's decision.
func (h *Handler) applicableCoupons(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := decodeCartBody(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	applicable, err := h.engine.ListApplicable(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("applicable_coupons", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ac := range applicable {
					e.Obj(func(e *jx.Encoder) {
						e.Field("coupon_id", func(e *jx.Encoder) { e.Int64(ac.CouponID) })
						e.Field("type", func(e *jx.Encoder) { e.Str(string(ac.Kind)) })
						e.Field("discount", func(e *jx.Encoder) { encodeMoney(e, ac.Discount) })
					})
				}
			})
		})
	})
	writeJSON(w, http.StatusOK, &e)
}

// applyCoupon applies the chosen coupon to the posted cart and returns the
// finalized cart with totals.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
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

	c, err := decodeCartBody(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := h.engine.Apply(r.Context(), c, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("updated_cart", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("items", func(e *jx.Encoder) { encodeItems(e, result.Items) })
				e.Field("total_price", func(e *jx.Encoder) { encodeMoney(e, result.OriginalTotal) })
				e.Field("total_discount", func(e *jx.Encoder) { encodeMoney(e, result.Discount) })
				e.Field("final_price", func(e *jx.Encoder) { encodeMoney(e, result.FinalTotal) })
			})
		})
	})
	writeJSON(w, http.StatusOK, &e)
}
