package httputil_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "auth-test-secret"
	testIssuer = "test-issuer"
)

func authConfig() *config.AuthConfig {
	return &config.AuthConfig{Secret: testSecret, Issuer: testIssuer}
}

func mintToken(t *testing.T, claims httputil.Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// echoSubject responds with the subject and client id the middleware put in
// the request context
func echoSubject(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"subject":   httputil.GetSubject(r.Context()),
		"client_id": httputil.GetClientID(r.Context()),
	})
}

func serveAuthenticated(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	handler := httputil.Authenticator(authConfig())(http.HandlerFunc(echoSubject))

	req := httptest.NewRequest("GET", "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthenticator_GyldigToken(t *testing.T) {
	token := mintToken(t, httputil.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "client",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Pid: "12345678901",
	}, testSecret)

	rr := serveAuthenticated(t, token)
	require.Equal(t, http.StatusOK, rr.Code, "unexpected status. Body: %s", rr.Body.String())

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var echoed map[string]string
	require.NoError(t, json.Unmarshal(data, &echoed))

	// pid takes precedence over the registered subject
	assert.Equal(t, "12345678901", echoed["subject"])
}

func TestAuthenticator_Avvisninger(t *testing.T) {
	valid := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   "subject",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name     string
		token    string
		wantCode string
	}{
		{
			name:     "missing header",
			token:    "",
			wantCode: "UNAUTHORIZED",
		},
		{
			name: "expired token",
			token: mintToken(t, httputil.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    testIssuer,
					Subject:   "subject",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}, testSecret),
			wantCode: "TOKEN_EXPIRED",
		},
		{
			name:     "wrong signing key",
			token:    mintToken(t, httputil.Claims{RegisteredClaims: valid}, "other-secret"),
			wantCode: "TOKEN_INVALID",
		},
		{
			name: "wrong issuer",
			token: mintToken(t, httputil.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "someone-else",
					Subject:   "subject",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}, testSecret),
			wantCode: "TOKEN_INVALID",
		},
		{
			name: "no identity in token",
			token: mintToken(t, httputil.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    testIssuer,
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}, testSecret),
			wantCode: "TOKEN_INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuthenticated(t, tt.token)
			require.Equal(t, http.StatusUnauthorized, rr.Code)

			var resp httputil.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestRequireM2MClient(t *testing.T) {
	cfg := authConfig()
	handler := httputil.Authenticator(cfg)(
		httputil.RequireM2MClient([]string{"melosys-api"})(http.HandlerFunc(echoSubject)),
	)

	send := func(azp string) *httptest.ResponseRecorder {
		token := mintToken(t, httputil.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    testIssuer,
				Subject:   azp,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Azp: azp,
		}, testSecret)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send("melosys-api").Code)
	assert.Equal(t, http.StatusForbidden, send("annen-klient").Code)
}
