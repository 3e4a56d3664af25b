package controllers

import (
	"net/http"
	"time"

	"github.com/armanehsani/zarledger-backend/api/responses"
	"github.com/armanehsani/zarledger-backend/api/validators"
	"github.com/armanehsani/zarledger-backend/internal/goldprice"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	pkgerrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
)

const defaultHistoryDays = 30

// PriceCurrent quotes the effective per-gram price for a karat, defaulting
// to 18 when none is given.
func PriceCurrent(svc goldprice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		karat, err := karatFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.CurrentQuote(r.Context(), karat)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPriceResponse(quote))
	}
}

// PriceHistory lists recorded samples for a karat over a trailing window.
func PriceHistory(svc goldprice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		karat, err := karatFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", defaultHistoryDays, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		samples, err := svc.History(r.Context(), karat, since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]priceResponse, len(samples))
		for i := range samples {
			out[i] = toPriceResponse(&samples[i])
		}
		responses.WriteSuccess(w, out)
	}
}

func karatFromQuery(r *http.Request) (enums.Karat, error) {
	value, err := validators.ParseQueryInt(r, "karat", int(enums.Karat18), 1, 24)
	if err != nil {
		return 0, err
	}
	karat, err := enums.ParseKarat(value)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported karat")
	}
	return karat, nil
}
