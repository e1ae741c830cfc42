package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/bloblite/bloblite/internal/logger"
	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// verifySharedKey checks a SharedKey or SharedKeyLite authorization header
// of the form "SharedKey account:signature".
func (a *Authenticator) verifySharedKey(ctx *api.Context, authz string) (Principal, error) {
	scheme, cred, ok := strings.Cut(authz, " ")
	if !ok {
		return Principal{}, bloberror.New(bloberror.InvalidAuthenticationInfo)
	}
	account, signature, ok := strings.Cut(cred, ":")
	if !ok {
		return Principal{}, bloberror.New(bloberror.InvalidAuthenticationInfo)
	}
	if account != ctx.Account {
		return Principal{}, bloberror.New(bloberror.AuthorizationFailure)
	}

	key, err := a.accountKey(account)
	if err != nil {
		return Principal{}, err
	}

	var stringToSign string
	if scheme == "SharedKeyLite" {
		stringToSign = stringToSignLite(ctx, account)
	} else {
		stringToSign = stringToSignFull(ctx, account)
	}

	expected := computeHMAC(key, stringToSign)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		logger.Debug("shared key signature mismatch",
			"account", account, "string_to_sign", stringToSign)
		return Principal{}, bloberror.New(bloberror.AuthenticationFailed)
	}
	return Principal{Account: account}, nil
}

// stringToSignFull builds the SharedKey string-to-sign.
func stringToSignFull(ctx *api.Context, account string) string {
	contentLength := ctx.Header("Content-Length")
	if contentLength == "0" {
		contentLength = ""
	}
	date := ctx.Header("Date")
	if ctx.Header("x-ms-date") != "" {
		date = ""
	}

	var b strings.Builder
	for _, field := range []string{
		ctx.Method,
		ctx.Header("Content-Encoding"),
		ctx.Header("Content-Language"),
		contentLength,
		ctx.Header("Content-MD5"),
		ctx.Header("Content-Type"),
		date,
		ctx.Header("If-Modified-Since"),
		ctx.Header("If-Match"),
		ctx.Header("If-None-Match"),
		ctx.Header("If-Unmodified-Since"),
		ctx.Header("Range"),
	} {
		b.WriteString(field)
		b.WriteString("\n")
	}
	b.WriteString(canonicalizedHeaders(ctx))
	b.WriteString(canonicalizedResource(ctx, account))
	return b.String()
}

// stringToSignLite builds the SharedKeyLite string-to-sign.
func stringToSignLite(ctx *api.Context, account string) string {
	date := ctx.Header("x-ms-date")
	if date == "" {
		date = ctx.Header("Date")
	}

	var b strings.Builder
	b.WriteString(ctx.Method)
	b.WriteString("\n")
	b.WriteString(ctx.Header("Content-MD5"))
	b.WriteString("\n")
	b.WriteString(ctx.Header("Content-Type"))
	b.WriteString("\n")
	b.WriteString(date)
	b.WriteString("\n")
	b.WriteString(canonicalizedHeaders(ctx))
	b.WriteString("/")
	b.WriteString(account)
	b.WriteString(ctx.URL.Path)
	if comp := ctx.Comp(); comp != "" {
		b.WriteString("?comp=")
		b.WriteString(comp)
	}
	return b.String()
}

// canonicalizedHeaders renders the sorted x-ms-* headers, one name:value
// line each.
func canonicalizedHeaders(ctx *api.Context) string {
	var b strings.Builder
	for _, h := range ctx.MSHeaders() {
		b.WriteString(h[0])
		b.WriteString(":")
		b.WriteString(h[1])
		b.WriteString("\n")
	}
	return b.String()
}

// canonicalizedResource renders /account + path followed by every query
// parameter as \nname:values, names sorted, values comma-joined.
func canonicalizedResource(ctx *api.Context, account string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(account)
	b.WriteString(ctx.URL.Path)
	for _, name := range ctx.QueryParams() {
		b.WriteString("\n")
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(strings.Join(ctx.QueryValues(name), ","))
	}
	return b.String()
}

func decodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, bloberror.WithMessage(bloberror.AuthenticationFailed,
			"The account key is not valid base64.")
	}
	return raw, nil
}

// computeHMAC signs the string with HMAC-SHA256 and returns it base64.
func computeHMAC(key []byte, stringToSign string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
