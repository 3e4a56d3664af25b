package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/armanehsani/zarledger-backend/api/responses"
	"github.com/armanehsani/zarledger-backend/api/validators"
	"github.com/armanehsani/zarledger-backend/internal/contracts"
	"github.com/armanehsani/zarledger-backend/internal/ledger"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	pkgerrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/armanehsani/zarledger-backend/pkg/pagination"
)

// ContractCreate opens a new installment contract for a customer.
func ContractCreate(svc contracts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contract service unavailable"))
			return
		}

		var input contracts.CreateContractInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toContractResponse(created))
	}
}

// ContractGet returns a single contract by id.
func ContractGet(svc contracts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contract service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "contractID"), "contractID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contract, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toContractResponse(contract))
	}
}

// ContractList filters contracts by customer and status.
func ContractList(svc contracts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contract service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := contracts.ListQuery{
			CustomerID: customerID,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseContractStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		list, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := contractListResponse{
			Items:      make([]contractResponse, len(list.Items)),
			NextCursor: list.Cursor,
		}
		for i := range list.Items {
			out.Items[i] = toContractResponse(&list.Items[i])
		}
		responses.WriteSuccess(w, out)
	}
}

// ContractLedger returns the full entry history for a contract.
func ContractLedger(contractSvc contracts.Service, ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if contractSvc == nil || ledgerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "contractID"), "contractID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// 404 on unknown contracts instead of an empty history.
		if _, err := contractSvc.Get(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := ledgerSvc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ledgerEntryResponse, len(entries))
		for i := range entries {
			out[i] = toLedgerEntryResponse(&entries[i])
		}
		responses.WriteSuccess(w, out)
	}
}

// ContractComplete closes a settled contract.
func ContractComplete(svc contracts.Service, logg *logger.Logger) http.HandlerFunc {
	return contractTransition(svc, logg, func(r *http.Request, id string) (interface{}, error) {
		parsed, err := validators.ParsePathUUID(id, "contractID")
		if err != nil {
			return nil, err
		}
		contract, err := svc.MarkCompleted(r.Context(), parsed)
		if err != nil {
			return nil, err
		}
		return toContractResponse(contract), nil
	})
}

// ContractDefault flags a contract the customer has walked away from.
func ContractDefault(svc contracts.Service, logg *logger.Logger) http.HandlerFunc {
	return contractTransition(svc, logg, func(r *http.Request, id string) (interface{}, error) {
		parsed, err := validators.ParsePathUUID(id, "contractID")
		if err != nil {
			return nil, err
		}
		contract, err := svc.MarkDefaulted(r.Context(), parsed)
		if err != nil {
			return nil, err
		}
		return toContractResponse(contract), nil
	})
}

func contractTransition(svc contracts.Service, logg *logger.Logger, apply func(r *http.Request, id string) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contract service unavailable"))
			return
		}
		result, err := apply(r, chi.URLParam(r, "contractID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
