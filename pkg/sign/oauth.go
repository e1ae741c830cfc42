package sign

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/bloblite/bloblite/internal/logger"
	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// StorageAudience is the audience bearer tokens must carry.
const StorageAudience = "https://storage.azure.com"

// OAuthOptions configures bearer-token validation. Tokens are HMAC-signed
// with a shared secret; asymmetric keys and real AAD metadata endpoints are
// out of scope for local emulation.
type OAuthOptions struct {
	Enabled bool
	Secret  string
	Issuer  string
}

func (a *Authenticator) verifyBearer(ctx *api.Context, token string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithAudience(StorageAudience),
		jwt.WithExpirationRequired(),
	}
	if a.opts.OAuth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.opts.OAuth.Issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(a.opts.OAuth.Secret), nil
	}, opts...)
	if err != nil || !parsed.Valid {
		logger.Debug("bearer token rejected", "error", err)
		return Principal{}, bloberror.New(bloberror.AuthenticationFailed)
	}

	return Principal{Account: ctx.Account}, nil
}
