package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/internal/skjema/service"
	"github.com/melosys/skjema-api/internal/skjema/validation"
	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/logger"
	"github.com/melosys/skjema-api/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SkjemaRepo methods for fakeRepo, shared with the pipeline tests

func (r *fakeRepo) Create(ctx context.Context, skjema *domain.Skjema) error {
	if skjema.ID == "" {
		skjema.ID = uuid.New().String()
	}
	skjema.CreatedAt = time.Now()
	skjema.UpdatedAt = time.Now()
	r.skjemaer[skjema.ID] = skjema
	return nil
}

func (r *fakeRepo) ListByEier(ctx context.Context, eier string) ([]*domain.Skjema, error) {
	var out []*domain.Skjema
	for _, s := range r.skjemaer {
		if s.Eier == eier {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateData(ctx context.Context, id string, data json.RawMessage) error {
	s, ok := r.skjemaer[id]
	if !ok || !s.ErUtkast() {
		return errors.ConflictWithKey("skjema.innsending.ikke_utkast")
	}
	s.Data = data
	return nil
}

func (r *fakeRepo) SendInn(ctx context.Context, id, korrelasjonsID string) error {
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

// fakeInnsender records dispatched form IDs on a channel so tests can wait
// for the background attempt.
type fakeInnsender struct {
	dispatched chan string
}

func newFakeInnsender() *fakeInnsender {
	return &fakeInnsender{dispatched: make(chan string, 8)}
}

func (f *fakeInnsender) ProcessByID(ctx context.Context, skjemaID string) error {
	f.dispatched <- skjemaID
	return nil
}

// alltidFinnesRegister answers every organization lookup positively
type alltidFinnesRegister struct{}

func (alltidFinnesRegister) Finnes(ctx context.Context, orgnr string) (bool, error) {
	return true, nil
}

func newSkjemaService(repo *fakeRepo, innsender service.Innsender) *service.SkjemaService {
	validator := validation.NewSkjemaValidator(alltidFinnesRegister{})
	return service.NewSkjemaService(repo, validator, innsender, logger.New("test", "test"))
}

func TestSkjemaService_Opprett(t *testing.T) {
	repo := newFakeRepo()
	svc := newSkjemaService(repo, newFakeInnsender())

	skjema, err := svc.Opprett(context.Background(), testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel, json.RawMessage("{}"))
	require.NoError(t, err)
	assert.NotEmpty(t, skjema.ID)
	assert.True(t, skjema.ErUtkast())
	assert.Equal(t, testutil.GyldigFoedselsnummer, skjema.Eier)
}

func TestSkjemaService_Opprett_UgyldigPayload(t *testing.T) {
	repo := newFakeRepo()
	svc := newSkjemaService(repo, newFakeInnsender())

	_, err := svc.Opprett(context.Background(), testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel, json.RawMessage(`"not an object"`))
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestSkjemaService_Hent_OwnerCheck(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	repo := newFakeRepo(skjema)
	svc := newSkjemaService(repo, newFakeInnsender())

	got, err := svc.Hent(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer)
	require.NoError(t, err)
	assert.Equal(t, skjema.ID, got.ID)

	_, err = svc.Hent(context.Background(), skjema.ID, "99988877766")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestSkjemaService_HentForSaksbehandling_SkipsOwnerCheck(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	repo := newFakeRepo(skjema)
	svc := newSkjemaService(repo, newFakeInnsender())

	got, err := svc.HentForSaksbehandling(context.Background(), skjema.ID)
	require.NoError(t, err)
	assert.Equal(t, skjema.ID, got.ID)
}

func TestSkjemaService_Oppdater(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	repo := newFakeRepo(skjema)
	svc := newSkjemaService(repo, newFakeInnsender())

	data := fixtures.SkjemaData(fixtures.GyldigArbeidstakersDel())
	got, err := svc.Oppdater(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer, data)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(got.Data))
}

func TestSkjemaService_SendInn_GyldigSkjema(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	skjema.Data = fixtures.SkjemaData(fixtures.GyldigArbeidstakersDel())
	repo := newFakeRepo(skjema)
	innsender := newFakeInnsender()
	svc := newSkjemaService(repo, innsender)

	got, err := svc.SendInn(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer)
	require.NoError(t, err)
	assert.Equal(t, domain.SkjemaStatusSendtInn, got.Status)
	require.NotNil(t, got.InnsendingStatus)
	assert.Equal(t, domain.InnsendingStatusMottatt, *got.InnsendingStatus)
	assert.NotNil(t, got.KorrelasjonsID)

	// The first processing attempt is dispatched in the background
	select {
	case id := <-innsender.dispatched:
		assert.Equal(t, skjema.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the submission pipeline to be dispatched")
	}
}

func TestSkjemaService_SendInn_ValideringFeiler(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)

	// Periode with from after to violates the period rule
	del := fixtures.GyldigArbeidstakersDel()
	del.Utsendingsperiode.FraDato = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	del.Utsendingsperiode.TilDato = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	skjema.Data = fixtures.SkjemaData(del)

	repo := newFakeRepo(skjema)
	innsender := newFakeInnsender()
	svc := newSkjemaService(repo, innsender)

	_, err := svc.SendInn(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "utsendingsperiode")

	// Still a draft, nothing dispatched
	assert.True(t, skjema.ErUtkast())
	select {
	case <-innsender.dispatched:
		t.Fatal("pipeline must not run for an invalid form")
	default:
	}
}

func TestSkjemaService_SendInn_ToGangerErKonflikt(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidstakersDel)
	skjema.Data = fixtures.SkjemaData(fixtures.GyldigArbeidstakersDel())
	repo := newFakeRepo(skjema)
	innsender := newFakeInnsender()
	svc := newSkjemaService(repo, innsender)

	_, err := svc.SendInn(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer)
	require.NoError(t, err)
	<-innsender.dispatched

	_, err = svc.SendInn(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestSkjemaService_SendInn_RegisterNede(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()
	skjema := fixtures.NyttUtkast(testutil.GyldigFoedselsnummer, domain.SkjematypeArbeidsgiversDel)

	del := fixtures.GyldigArbeidsgiversDel()
	del.Loenn.ArbeidsgiverBetalerAlt = false
	del.Loenn.Utbetalere = &domain.Utbetalere{
		NorskeUtbetalere: []domain.NorskUtbetaler{
			{Navn: "Utbetaler AS", Organisasjonsnummer: testutil.GyldigOrganisasjonsnummer},
		},
	}
	skjema.Data = fixtures.SkjemaData(del)

	repo := newFakeRepo(skjema)
	validator := validation.NewSkjemaValidator(feilendeRegister{})
	svc := service.NewSkjemaService(repo, validator, newFakeInnsender(), logger.New("test", "test"))

	_, err := svc.SendInn(context.Background(), skjema.ID, testutil.GyldigFoedselsnummer)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.True(t, skjema.ErUtkast())
}

// feilendeRegister simulates a register outage
type feilendeRegister struct{}

func (feilendeRegister) Finnes(ctx context.Context, orgnr string) (bool, error) {
	return false, fmt.Errorf("ereg unavailable")
}
