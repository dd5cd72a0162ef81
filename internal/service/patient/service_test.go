package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository/file"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
	"github.com/jwalitptl/clinic-console/pkg/security"
)

type memoryRepo struct {
	patients []*model.Patient
	saves    int
	saveErr  error
}

func (r *memoryRepo) Load(context.Context) ([]*model.Patient, error) {
	return r.patients, nil
}

func (r *memoryRepo) Save(_ context.Context, patients []*model.Patient) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.patients = make([]*model.Patient, len(patients))
	for i, p := range patients {
		r.patients[i] = p.Clone()
	}
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *metrics.Metrics) {
	m := metrics.New("test", nil)
	return NewService(repo, security.NewBcryptHasher(bcrypt.MinCost), logger.Nop(), m), m
}

func registerReq(name, username string) *model.RegisterPatientRequest {
	return &model.RegisterPatientRequest{
		Name:     name,
		Age:      30,
		Address:  "12 Oak Road",
		Phone:    "555-0100",
		Username: username,
		Password: "s3cret",
	}
}

func TestRegister(t *testing.T) {
	repo := &memoryRepo{}
	svc, m := newTestService(repo)
	ctx := context.Background()

	ann, err := svc.Register(ctx, registerReq("Ann Lee", "ann"))
	require.NoError(t, err)
	bob, err := svc.Register(ctx, registerReq("Bob Stone", "bob"))
	require.NoError(t, err)

	assert.Equal(t, 1, ann.ID)
	assert.Equal(t, 2, bob.ID)
	assert.True(t, security.IsHashed(ann.Password))
	require.Len(t, repo.patients, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PatientsIndexed))
}

func TestRegister_Rejections(t *testing.T) {
	svc, _ := newTestService(&memoryRepo{})
	ctx := context.Background()
	_, err := svc.Register(ctx, registerReq("Ann Lee", "ann"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq("Another Ann", "ann"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	bad := registerReq("", "carl")
	_, err = svc.Register(ctx, bad)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	multiline := registerReq("Dan", "dan")
	multiline.Address = "line one\nline two"
	_, err = svc.Register(ctx, multiline)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	assert.Len(t, svc.All(), 1)
}

func TestFinders(t *testing.T) {
	svc, _ := newTestService(&memoryRepo{})
	ctx := context.Background()
	for _, r := range []*model.RegisterPatientRequest{
		registerReq("Maria Lopez", "maria"),
		registerReq("Mario Rossi", "mario"),
		registerReq("Ann Marlow", "annm"),
	} {
		_, err := svc.Register(ctx, r)
		require.NoError(t, err)
	}

	p, err := svc.FindByID(2)
	require.NoError(t, err)
	assert.Equal(t, "Mario Rossi", p.Name)

	p, err = svc.FindByName("MAR")
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID, "first match in registration order")

	p, err = svc.FindByName("marl")
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)

	_, err = svc.FindByName("zed")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	p, err = svc.FindByUsername("mario")
	require.NoError(t, err)
	assert.Equal(t, 2, p.ID)

	_, err = svc.FindByUsername("MARIO")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound), "usernames match exactly")
}

func TestRemoveByID(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newTestService(repo)
	ctx := context.Background()
	for _, u := range []string{"a", "b", "c"} {
		_, err := svc.Register(ctx, registerReq("Name "+u, u))
		require.NoError(t, err)
	}

	removed, err := svc.RemoveByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = svc.FindByID(2)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound), "index follows the list")
	_, err = svc.FindByUsername("b")
	assert.Error(t, err)
	require.Len(t, repo.patients, 2)

	removed, err = svc.RemoveByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveByID_RestoresOnSaveFailure(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newTestService(repo)
	ctx := context.Background()
	for _, u := range []string{"a", "b", "c"} {
		_, err := svc.Register(ctx, registerReq("Name "+u, u))
		require.NoError(t, err)
	}

	repo.saveErr = errors.New("disk full")
	removed, err := svc.RemoveByID(ctx, 2)
	require.Error(t, err)
	assert.False(t, removed)

	all := svc.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].ID, all[1].ID, all[2].ID})
	_, err = svc.FindByID(2)
	assert.NoError(t, err)
}

func TestAllSortedAndInsert(t *testing.T) {
	svc, _ := newTestService(&memoryRepo{})
	ctx := context.Background()

	require.NoError(t, svc.Insert(ctx, &model.Patient{ID: 9, Name: "Nine", Username: "nine"}))
	require.NoError(t, svc.Insert(ctx, &model.Patient{ID: 3, Name: "Three", Username: "three"}))
	err := svc.Insert(ctx, &model.Patient{ID: 3, Name: "Again"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	sorted := svc.AllSorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, 3, sorted[0].ID)
	assert.Equal(t, 9, svc.All()[0].ID)

	p, err := svc.Register(ctx, registerReq("Ten", "ten"))
	require.NoError(t, err)
	assert.Equal(t, 10, p.ID)
}

func TestUpdateProfileAndAuthenticate(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newTestService(repo)
	ctx := context.Background()
	_, err := svc.Register(ctx, registerReq("Ann Lee", "ann"))
	require.NoError(t, err)

	_, err = svc.Authenticate("ann", "s3cret")
	require.NoError(t, err)
	_, err = svc.Authenticate("ann", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	phone, password := "555-0199", "n3w-pass"
	updated, err := svc.UpdateProfile(ctx, 1, &model.UpdateProfileRequest{Phone: &phone, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "12 Oak Road", updated.Address)
	assert.Equal(t, "555-0199", repo.patients[0].Phone)

	_, err = svc.Authenticate("ann", "n3w-pass")
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, 1, &model.UpdateProfileRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	_, err = svc.UpdateProfile(ctx, 42, &model.UpdateProfileRequest{Phone: &phone})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestAuthenticate_LegacyPlainPassword(t *testing.T) {
	repo := &memoryRepo{patients: []*model.Patient{{ID: 4, Name: "Old", Username: "old", Password: "plain"}}}
	svc, _ := newTestService(repo)
	require.NoError(t, svc.Load(context.Background()))

	p, err := svc.Authenticate("old", "plain")
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID)
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	open := func() *Service {
		store, err := file.NewStore(dir, time.Local, logger.Nop(), nil)
		require.NoError(t, err)
		svc := NewService(store.Patients(), security.NewBcryptHasher(bcrypt.MinCost), logger.Nop(), nil)
		require.NoError(t, svc.Load(ctx))
		return svc
	}

	svc := open()
	req := registerReq("Ann, the first", "ann")
	req.Address = `Flat 2, 10 Back\Lane`
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerReq("Bob", "bob"))
	require.NoError(t, err)
	_, err = svc.RemoveByID(ctx, 2)
	require.NoError(t, err)

	reloaded := open()
	all := reloaded.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Ann, the first", all[0].Name)
	assert.Equal(t, `Flat 2, 10 Back\Lane`, all[0].Address)

	next, err := reloaded.Register(ctx, registerReq("Cy", "cy"))
	require.NoError(t, err)
	assert.Equal(t, 2, next.ID, "ids continue from the highest stored id")
}
