package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coupon-engine/internal/domain/cart"
	"github.com/xenking/coupon-engine/internal/domain/catalog"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
	"github.com/xenking/coupon-engine/internal/engine"
)

// respondError maps a domain error to an HTTP status and writes the JSON
// error body. Unrecognized errors are logged and reported as 500 without
// leaking internals.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		message = "internal server error"
	}
	writeError(w, status, message)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		return http.StatusNotFound, "coupon not found"
	case errors.Is(err, engine.ErrNotApplicable):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, catalog.ErrUnknownPrice):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, coupon.ErrMalformed):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// writeBadRequest reports a body parse failure.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	writeJSON(w, status, &e)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best effort: the status is already written, a failed write only means
	// the client went away.
	_, _ = w.Write(e.Bytes())
}
