package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/anidex/anidex/src/internal/logging"
)

// Verifier checks a raw bearer token presented by the transport bridge.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// OIDCVerifier validates bridge tokens against an OIDC issuer. The audience
// is matched against the token's aud claim.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuerURL, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query OIDC provider %s: %w", issuerURL, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: audience})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) error {
	if _, err := v.verifier.Verify(ctx, token); err != nil {
		return err
	}
	return nil
}

// RequireBearer rejects requests without a valid "Bearer <token>" header.
func RequireBearer(v Verifier) func(http.Handler) http.Handler {
	log := logging.WithComponent("gateway-auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := requestIDFrom(r.Context())
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{RequestID: reqID, Error: "missing bearer token"})
				return
			}
			if err := v.Verify(r.Context(), token); err != nil {
				log.Warn().Err(err).Str("request_id", reqID).Msg("token verification failed")
				writeJSON(w, http.StatusUnauthorized, errorResponse{RequestID: reqID, Error: "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
