package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/armanehsani/zarledger-backend/api/middleware"
	"github.com/armanehsani/zarledger-backend/api/responses"
	"github.com/armanehsani/zarledger-backend/api/validators"
	"github.com/armanehsani/zarledger-backend/internal/payments"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	pkgerrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
)

// PaymentPost converts a cash installment into gold weight on the ledger.
func PaymentPost(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payments.PostPaymentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorUserID = actorID

		result, err := svc.PostPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, postResultResponse{
			Entry:    toLedgerEntryResponse(result.Entry),
			Contract: toContractResponse(result.Contract),
		})
	}
}

// AdjustmentPost records an authorized manual weight correction.
func AdjustmentPost(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payments.PostAdjustmentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorUserID = actorID
		input.ActorRole = enums.MemberRole(middleware.RoleFromContext(r.Context()))

		result, err := svc.PostAdjustment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, postResultResponse{
			Entry:    toLedgerEntryResponse(result.Entry),
			Contract: toContractResponse(result.Contract),
		})
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
