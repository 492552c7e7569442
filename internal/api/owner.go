package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pathakanu/myAgenda/internal/api/respond"
	"github.com/pathakanu/myAgenda/internal/model"
)

// OwnerHeader carries the tenant resolved by the upstream identity layer.
const OwnerHeader = "X-Owner-ID"

type ownerKey struct{}

// RequireOwner rejects requests without an owner and stores it on the context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			respond.WriteDomainError(w, model.NewAuthorizationError("missing "+OwnerHeader+" header"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

// OwnerFrom returns the owner stored by RequireOwner.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
