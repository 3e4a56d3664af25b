package middleware

import (
	"net/http"

	"github.com/armanehsani/zarledger-backend/api/responses"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	pkgerrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
)

// RequireAdjustmentRole admits only roles that may authorize manual balance
// corrections.
func RequireAdjustmentRole(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if !role.CanAuthorizeAdjustments() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "adjustments require owner or manager role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
