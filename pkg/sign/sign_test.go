package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

const (
	testAccount = "devstoreaccount1"
	testKey     = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

func testAuth(opts Options) *Authenticator {
	return New(StaticKeychain{testAccount: testKey}, opts)
}

func signString(t *testing.T, stringToSign string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(testKey)
	require.NoError(t, err)
	mac := hmac.New(sha256.New, raw)
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newCtx(r *http.Request) *api.Context { return api.NewContext(r) }

func TestSharedKeyAccepted(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos?restype=container", nil)
	r.Header.Set("x-ms-date", "Mon, 02 Jun 2025 10:00:00 GMT")
	r.Header.Set("x-ms-version", "2021-10-04")

	// VERB, 11 header fields, canonicalized x-ms headers, canonicalized
	// resource with the sorted query parameters.
	stringToSign := "GET\n\n\n\n\n\n\n\n\n\n\n\n" +
		"x-ms-date:Mon, 02 Jun 2025 10:00:00 GMT\n" +
		"x-ms-version:2021-10-04\n" +
		"/devstoreaccount1/devstoreaccount1/photos\nrestype:container"

	r.Header.Set("Authorization", "SharedKey devstoreaccount1:"+signString(t, stringToSign))

	p, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.Equal(t, testAccount, p.Account)
	assert.False(t, p.Anonymous)
}

func TestSharedKeyRejectsBadSignature(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos", nil)
	r.Header.Set("Authorization", "SharedKey devstoreaccount1:AAAA")

	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthenticationFailed))
}

func TestSharedKeyAccountMismatch(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos", nil)
	r.Header.Set("Authorization", "SharedKey otheraccount:AAAA")

	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthorizationFailure))
}

func TestSharedKeyLiteAccepted(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos?comp=list", nil)
	r.Header.Set("x-ms-date", "Mon, 02 Jun 2025 10:00:00 GMT")

	stringToSign := "GET\n\n\nMon, 02 Jun 2025 10:00:00 GMT\n" +
		"x-ms-date:Mon, 02 Jun 2025 10:00:00 GMT\n" +
		"/devstoreaccount1/devstoreaccount1/photos?comp=list"

	r.Header.Set("Authorization", "SharedKeyLite devstoreaccount1:"+signString(t, stringToSign))

	p, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.Equal(t, testAccount, p.Account)
}

func accountSASQuery(t *testing.T, sp, ss, srt, st, se string) url.Values {
	t.Helper()
	stringToSign := testAccount + "\n" + sp + "\n" + ss + "\n" + srt + "\n" +
		st + "\n" + se + "\n" + "\n" + "\n" + "2021-10-04\n"
	q := url.Values{}
	q.Set("sv", "2021-10-04")
	q.Set("ss", ss)
	q.Set("srt", srt)
	q.Set("sp", sp)
	if st != "" {
		q.Set("st", st)
	}
	q.Set("se", se)
	q.Set("sig", signString(t, stringToSign))
	return q
}

func TestAccountSASAccepted(t *testing.T) {
	se := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05Z")
	q := accountSASQuery(t, "rwdlac", "b", "sco", "", se)

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos/cat.jpg?"+q.Encode(), nil)
	p, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.Equal(t, testAccount, p.Account)
}

func TestAccountSASValidationOrder(t *testing.T) {
	se := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05Z")

	// Service mismatch wins over everything else.
	q := accountSASQuery(t, "r", "q", "o", "", se)
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/c/b?"+q.Encode(), nil)
	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthorizationServiceMismatch))

	// Then resource type: blob request needs o.
	q = accountSASQuery(t, "r", "b", "sc", "", se)
	r = httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/c/b?"+q.Encode(), nil)
	_, err = testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthorizationResourceTypeMismatch))

	// Then permission: PUT comp=block needs a.
	q = accountSASQuery(t, "r", "b", "o", "", se)
	q.Set("comp", "block")
	q.Set("blockid", "QUFB")
	r = httptest.NewRequest(http.MethodPut, "http://127.0.0.1:10000/devstoreaccount1/c/b?"+q.Encode(), nil)
	_, err = testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthorizationPermissionMismatch))
}

func TestAccountSASCopyRequiresWrite(t *testing.T) {
	se := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05Z")

	q := accountSASQuery(t, "w", "b", "o", "", se)
	r := httptest.NewRequest(http.MethodPut, "http://127.0.0.1:10000/devstoreaccount1/c/dst?"+q.Encode(), nil)
	r.Header.Set("x-ms-copy-source", "http://127.0.0.1:10000/devstoreaccount1/c/src")
	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.NoError(t, err)

	// c alone is not enough for a copy destination.
	q = accountSASQuery(t, "c", "b", "o", "", se)
	r = httptest.NewRequest(http.MethodPut, "http://127.0.0.1:10000/devstoreaccount1/c/dst?"+q.Encode(), nil)
	r.Header.Set("x-ms-copy-source", "http://127.0.0.1:10000/devstoreaccount1/c/src")
	_, err = testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthorizationPermissionMismatch))
}

func TestAccountSASExpired(t *testing.T) {
	se := time.Now().UTC().Add(-time.Hour).Format("2006-01-02T15:04:05Z")
	q := accountSASQuery(t, "r", "b", "o", "", se)

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/c/b?"+q.Encode(), nil)
	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestAccountSASNotYetValid(t *testing.T) {
	st := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05Z")
	se := time.Now().UTC().Add(2 * time.Hour).Format("2006-01-02T15:04:05Z")
	q := accountSASQuery(t, "r", "b", "o", st, se)

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/c/b?"+q.Encode(), nil)
	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet valid")
}

func TestServiceSASContainerScope(t *testing.T) {
	se := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05Z")
	stringToSign := "r\n\n" + se + "\n/blob/devstoreaccount1/photos\n\n\n\n2021-10-04\nc\n\n\n\n\n\n\n"

	q := url.Values{}
	q.Set("sv", "2021-10-04")
	q.Set("sr", "c")
	q.Set("sp", "r")
	q.Set("se", se)
	q.Set("sig", signString(t, stringToSign))

	// The container-scoped token covers blob reads inside the container.
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos/cat.jpg?"+q.Encode(), nil)
	p, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.Equal(t, testAccount, p.Account)
}

func TestServiceSASBlobScopeRequiresBlob(t *testing.T) {
	se := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05Z")
	q := url.Values{}
	q.Set("sr", "b")
	q.Set("sp", "r")
	q.Set("se", se)
	q.Set("sig", "AAAA")

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/photos?"+q.Encode(), nil)
	_, err := testAuth(Options{}).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthorizationResourceTypeMismatch))
}

func TestBearerToken(t *testing.T) {
	opts := Options{OAuth: OAuthOptions{Enabled: true, Secret: "oauth-secret"}}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": StorageAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("oauth-secret"))
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/c/b", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	p, err := testAuth(opts).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.Equal(t, testAccount, p.Account)

	// Wrong audience is rejected.
	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "https://example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	badSigned, err := bad.SignedString([]byte("oauth-secret"))
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+badSigned)
	_, err = testAuth(opts).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthenticationFailed))
}

func TestAnonymousPublicAccess(t *testing.T) {
	opts := Options{PublicAccess: func(account, container string) blob.PublicAccess {
		if container == "public" {
			return blob.PublicAccessBlob
		}
		return blob.PublicAccessNone
	}}

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/public/img.png", nil)
	p, err := testAuth(opts).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.True(t, p.Anonymous)

	// Blob-level access does not permit container listing.
	r = httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/public?restype=container&comp=list", nil)
	_, err = testAuth(opts).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthenticationFailed))

	// Writes are never anonymous.
	r = httptest.NewRequest(http.MethodPut, "http://127.0.0.1:10000/devstoreaccount1/public/img.png", nil)
	_, err = testAuth(opts).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthenticationFailed))

	r = httptest.NewRequest(http.MethodGet, "http://127.0.0.1:10000/devstoreaccount1/private/img.png", nil)
	_, err = testAuth(opts).Authenticate(newCtx(r), r)
	assert.True(t, bloberror.IsCode(err, bloberror.AuthenticationFailed))
}

func TestLooseModeAcceptsAnything(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "http://127.0.0.1:10000/devstoreaccount1/c/b", nil)
	p, err := testAuth(Options{Loose: true}).Authenticate(newCtx(r), r)
	require.NoError(t, err)
	assert.Equal(t, testAccount, p.Account)
}

func TestParseSASTimeForms(t *testing.T) {
	for _, s := range []string{
		"2025-06-01T12:00:00Z",
		"2025-06-01T12:00:00+02:00",
		"2025-06-01T12:00Z",
		"2025-06-01",
	} {
		_, ok := parseSASTime(s)
		assert.True(t, ok, s)
	}
	_, ok := parseSASTime("June 1st")
	assert.False(t, ok)
}
