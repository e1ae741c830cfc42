// Package sign authenticates requests: SharedKey and SharedKeyLite
// signatures, account and service SAS tokens, OAuth bearer tokens, and
// anonymous access to public containers.
package sign

import (
	"net/http"
	"strings"
	"time"

	"github.com/bloblite/bloblite/internal/logger"
	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// Keychain resolves account names to their base64-encoded shared keys.
type Keychain interface {
	Key(account string) (string, bool)
}

// StaticKeychain is a fixed account-to-key map.
type StaticKeychain map[string]string

func (k StaticKeychain) Key(account string) (string, bool) {
	key, ok := k[account]
	return key, ok
}

// Principal describes who a request authenticated as.
type Principal struct {
	Account string

	// Anonymous is set for unauthenticated reads of public containers.
	Anonymous bool
}

// Options tunes the authenticator.
type Options struct {
	// Loose accepts every request without checking credentials.
	Loose bool

	// CheckAPIVersion rejects requests whose x-ms-version header is not a
	// well-formed service version date.
	CheckAPIVersion bool

	// OAuth enables bearer-token validation.
	OAuth OAuthOptions

	// PublicAccess reports the public-access level of a container, used for
	// anonymous requests. May be nil.
	PublicAccess func(account, container string) blob.PublicAccess
}

// Authenticator verifies request credentials against a keychain.
type Authenticator struct {
	keys Keychain
	opts Options
}

// New creates an Authenticator.
func New(keys Keychain, opts Options) *Authenticator {
	return &Authenticator{keys: keys, opts: opts}
}

// Authenticate decides how the request proves itself and verifies it. The
// checks run in a fixed order: shared key, account SAS, service SAS, bearer
// token, anonymous public access.
func (a *Authenticator) Authenticate(ctx *api.Context, r *http.Request) (Principal, error) {
	if a.opts.CheckAPIVersion {
		if err := checkAPIVersion(ctx.APIVersion()); err != nil {
			return Principal{}, err
		}
	}

	if a.opts.Loose {
		return Principal{Account: ctx.Account}, nil
	}

	authz := ctx.Header("Authorization")
	switch {
	case strings.HasPrefix(authz, "SharedKey ") || strings.HasPrefix(authz, "SharedKeyLite "):
		return a.verifySharedKey(ctx, authz)

	case ctx.HasQuery("ss") && ctx.HasQuery("srt"):
		return a.verifyAccountSAS(ctx)

	case ctx.HasQuery("sr"):
		return a.verifyServiceSAS(ctx)

	case strings.HasPrefix(authz, "Bearer ") && a.opts.OAuth.Enabled:
		return a.verifyBearer(ctx, strings.TrimPrefix(authz, "Bearer "))
	}

	if a.opts.PublicAccess != nil && ctx.Container != "" &&
		(ctx.Method == http.MethodGet || ctx.Method == http.MethodHead) {
		access := a.opts.PublicAccess(ctx.Account, ctx.Container)
		if access == blob.PublicAccessContainer || (access == blob.PublicAccessBlob && ctx.Blob != "") {
			return Principal{Account: ctx.Account, Anonymous: true}, nil
		}
	}

	logger.Debug("request carries no usable credentials",
		"account", ctx.Account, "path", ctx.URL.Path)
	return Principal{}, bloberror.New(bloberror.AuthenticationFailed)
}

// checkAPIVersion validates the x-ms-version header when present. An absent
// header is allowed so that SAS-only and anonymous clients keep working.
func checkAPIVersion(version string) error {
	if version == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", version); err != nil {
		return bloberror.WithMessage(bloberror.InvalidHeaderValue,
			"The value for one of the HTTP headers is not in the correct format.")
	}
	return nil
}

func (a *Authenticator) accountKey(account string) ([]byte, error) {
	key, ok := a.keys.Key(account)
	if !ok {
		return nil, bloberror.WithMessage(bloberror.AuthenticationFailed,
			"The specified account %s is unknown.", account)
	}
	return decodeKey(key)
}
