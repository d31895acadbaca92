package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/internal/skjema/handler"
	"github.com/melosys/skjema-api/internal/skjema/service"
	"github.com/melosys/skjema-api/internal/skjema/validation"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/httputil"
	"github.com/melosys/skjema-api/pkg/i18n"
	"github.com/melosys/skjema-api/pkg/logger"
	"github.com/melosys/skjema-api/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "handler-test-secret"
	testIssuer = "test-issuer"
	testClient = "melosys-web"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Secret:     testSecret,
		Issuer:     testIssuer,
		M2MClients: []string{"melosys-api"},
	}
}

// signToken mints an HS256 bearer token the way the identity provider would
func signToken(t *testing.T, pid, azp string) string {
	t.Helper()
	claims := httputil.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   azp,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Pid: pid,
		Azp: azp,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// fakeSkjemaRepo is an in-memory SkjemaRepo with the same draft guards as
// the real repository
type fakeSkjemaRepo struct {
	skjemaer map[string]*domain.Skjema
}

func newFakeSkjemaRepo(skjemaer ...*domain.Skjema) *fakeSkjemaRepo {
	r := &fakeSkjemaRepo{skjemaer: make(map[string]*domain.Skjema)}
	for _, s := range skjemaer {
		r.skjemaer[s.ID] = s
	}
	return r
}

func (r *fakeSkjemaRepo) Create(ctx context.Context, skjema *domain.Skjema) error {
	if skjema.ID == "" {
		skjema.ID = uuid.New().String()
	}
	skjema.CreatedAt = time.Now()
	skjema.UpdatedAt = time.Now()
	r.skjemaer[skjema.ID] = skjema
	return nil
}

func (r *fakeSkjemaRepo) GetByID(ctx context.Context, id string) (*domain.Skjema, error) {
	s, ok := r.skjemaer[id]
	if !ok {
		return nil, errors.NotFound("skjema")
	}
	return s, nil
}

func (r *fakeSkjemaRepo) ListByEier(ctx context.Context, eier string) ([]*domain.Skjema, error) {
	var out []*domain.Skjema
	for _, s := range r.skjemaer {
		if s.Eier == eier {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSkjemaRepo) UpdateData(ctx context.Context, id string, data json.RawMessage) error {
	s, ok := r.skjemaer[id]
	if !ok || !s.ErUtkast() {
		return errors.ConflictWithKey("skjema.innsending.ikke_utkast")
	}
	s.Data = data
	s.UpdatedAt = time.Now()
	return nil
}

func (r *fakeSkjemaRepo) SendInn(ctx context.Context, id, korrelasjonsID string) error {
	s, ok := r.skjemaer[id]
	if !ok || !s.ErUtkast() {
		return errors.ConflictWithKey("skjema.innsending.allerede_sendt")
	}
	now := time.Now()
	mottatt := domain.InnsendingStatusMottatt
	s.Status = domain.SkjemaStatusSendtInn
	s.InnsendingStatus = &mottatt
	s.KorrelasjonsID = &korrelasjonsID
	s.InnsendtAt = &now
	return nil
}

type fakeInnsender struct{}

func (f *fakeInnsender) ProcessByID(ctx context.Context, skjemaID string) error { return nil }

type alltidFinnesRegister struct{}

func (alltidFinnesRegister) Finnes(ctx context.Context, orgnr string) (bool, error) {
	return true, nil
}

// newTestRouter mounts the form routes the same way the server does,
// including auth middleware, on top of an in-memory repository.
func newTestRouter(repo *fakeSkjemaRepo) *chi.Mux {
	log := logger.New("test", "test")
	validator := validation.NewSkjemaValidator(alltidFinnesRegister{})
	svc := service.NewSkjemaService(repo, validator, &fakeInnsender{}, log)
	h := handler.NewSkjemaHandler(svc, log)

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(i18n.Middleware)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticator(testAuthConfig()))

		r.Route("/skjema", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Opprett)
			r.Get("/{id}", h.Hent)
			r.Put("/{id}", h.Oppdater)
			r.Post("/{id}/innsending", h.SendInn)
		})

		r.Route("/m2m", func(r chi.Router) {
			r.Use(httputil.RequireM2MClient(testAuthConfig().M2MClients))
			r.Get("/skjema/{id}", h.HentForSaksbehandling)
		})
	})
	return r
}

func doRequest(r http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSkjemaHandler_Opprett(t *testing.T) {
	r := newTestRouter(newFakeSkjemaRepo())
	token := signToken(t, testutil.GyldigFoedselsnummer, testClient)

	body := []byte(`{"skjematype": "ARBEIDSTAKERS_DEL", "data": {}}`)
	rr := doRequest(r, "POST", "/api/v1/skjema", token, body)

	require.Equal(t, http.StatusCreated, rr.Code, "unexpected status. Body: %s", rr.Body.String())

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, _ := json.Marshal(resp.Data)
	var skjema domain.Skjema
	require.NoError(t, json.Unmarshal(data, &skjema))
	assert.NotEmpty(t, skjema.ID)
	assert.Equal(t, domain.SkjemaStatusUtkast, skjema.Status)
	assert.Equal(t, testutil.GyldigFoedselsnummer, skjema.Eier)
}

func TestSkjemaHandler_Opprett_UkjentSkjematype(t *testing.T) {
	r := newTestRouter(newFakeSkjemaRepo())
	token := signToken(t, testutil.GyldigFoedselsnummer, testClient)

	rr := doRequest(r, "POST", "/api/v1/skjema", token, []byte(`{"skjematype": "NOE_ANNET"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSkjemaHandler_UtenToken(t *testing.T) {
	r := newTestRouter(newFakeSkjemaRepo())

	rr := doRequest(r, "GET", "/api/v1/skjema", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSkjemaHandler_Hent_AnnenEiersSkjema(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast("10987654321", domain.SkjematypeArbeidstakersDel)
	r := newTestRouter(newFakeSkjemaRepo(skjema))

	token := signToken(t, testutil.GyldigFoedselsnummer, testClient)
	rr := doRequest(r, "GET", "/api/v1/skjema/"+skjema.ID, token, nil)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSkjemaHandler_Oppdater(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	r := newTestRouter(newFakeSkjemaRepo(skjema))

	token := signToken(t, testutil.GyldigFoedselsnummer, testClient)
	nyData := fixtures.SkjemaData(fixtures.GyldigArbeidstakersDel())
	body, _ := json.Marshal(map[string]json.RawMessage{"data": nyData})

	rr := doRequest(r, "PUT", "/api/v1/skjema/"+skjema.ID, token, body)
	require.Equal(t, http.StatusOK, rr.Code, "unexpected status. Body: %s", rr.Body.String())
}

func TestSkjemaHandler_SendInn(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	skjema.Data = fixtures.SkjemaData(fixtures.GyldigArbeidstakersDel())
	r := newTestRouter(newFakeSkjemaRepo(skjema))

	token := signToken(t, testutil.GyldigFoedselsnummer, testClient)
	rr := doRequest(r, "POST", "/api/v1/skjema/"+skjema.ID+"/innsending", token, nil)

	require.Equal(t, http.StatusOK, rr.Code, "unexpected status. Body: %s", rr.Body.String())

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var sendt domain.Skjema
	require.NoError(t, json.Unmarshal(data, &sendt))
	assert.Equal(t, domain.SkjemaStatusSendtInn, sendt.Status)
}

func TestSkjemaHandler_SendInn_ValideringsfeilGirDetaljer(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	del := fixtures.GyldigArbeidstakersDel()
	del.Arbeidssituasjon.HarVaertILoennetArbeid = false
	del.Arbeidssituasjon.AktivitetFoerUtsending = nil
	skjema.Data = fixtures.SkjemaData(del)
	r := newTestRouter(newFakeSkjemaRepo(skjema))

	token := signToken(t, testutil.GyldigFoedselsnummer, testClient)
	rr := doRequest(r, "POST", "/api/v1/skjema/"+skjema.ID+"/innsending", token, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code, "unexpected status. Body: %s", rr.Body.String())

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestSkjemaHandler_M2M(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttSendtInn(testutil.GyldigFoedselsnummer, domain.InnsendingStatusFerdig)
	r := newTestRouter(newFakeSkjemaRepo(skjema))

	t.Run("allowed client", func(t *testing.T) {
		token := signToken(t, "", "melosys-api")
		rr := doRequest(r, "GET", "/api/v1/m2m/skjema/"+skjema.ID, token, nil)
		assert.Equal(t, http.StatusOK, rr.Code, "unexpected status. Body: %s", rr.Body.String())
	})

	t.Run("unknown client", func(t *testing.T) {
		token := signToken(t, "", "ukjent-klient")
		rr := doRequest(r, "GET", "/api/v1/m2m/skjema/"+skjema.ID, token, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
