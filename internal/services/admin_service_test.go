package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/db_models"
	"foodinsight/pkg/utils"
)

type adminFixture struct {
	svc          IAdminService
	accounts     *fakeAccountRepo
	observations *fakeObservationRepo
	codes        *fakeCodeRepo
	storage      *fakeStorage
}

func newAdminFixture(t *testing.T, accounts ...*db_models.Account) *adminFixture {
	t.Helper()
	f := &adminFixture{
		accounts:     newFakeAccountRepo(accounts...),
		observations: &fakeObservationRepo{},
		storage:      newFakeStorage(),
	}
	f.codes = &fakeCodeRepo{accounts: f.accounts}
	cfg := &config.Config{Admin: config.AdminConfig{Username: "ADMIN"}}
	f.svc = NewAdminService(cfg, f.accounts, f.observations, f.codes, f.storage, zap.NewNop())
	return f
}

func TestDeleteAccountRemovesImages(t *testing.T) {
	jo := &db_models.Account{Email: "jo@example.com", Name: "Jo", Verified: true}
	f := newAdminFixture(t, jo)
	ctx := context.Background()

	f.storage.files["img1.png"] = []byte("x")
	f.observations.observations = append(f.observations.observations,
		db_models.Observation{AccountID: jo.ID, FoodImage: "img1.png"},
		db_models.Observation{AccountID: uuid.New(), FoodImage: "other.png"},
	)

	deleted, err := f.svc.DeleteAccount(ctx, jo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", deleted.Email)
	assert.Equal(t, []string{"jo@example.com"}, f.accounts.deleted)
	assert.Equal(t, []string{"img1.png"}, f.storage.deleted)
}

func TestDeleteAccountProtectsPrivilegedIdentity(t *testing.T) {
	byEmail := &db_models.Account{Email: "admin"}
	byName := &db_models.Account{Email: "someone@example.com", Name: "Admin"}
	bySubstring := &db_models.Account{Email: "sysadmin@example.com", Name: "Ops"}
	f := newAdminFixture(t, byEmail, byName, bySubstring)

	for _, acc := range []*db_models.Account{byEmail, byName, bySubstring} {
		_, err := f.svc.DeleteAccount(context.Background(), acc.ID.String())
		assert.ErrorIs(t, err, utils.ErrProtectedAccount, acc.Email)
	}
	assert.Empty(t, f.accounts.deleted)
}

func TestDeleteAccountUnknownID(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.svc.DeleteAccount(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrAccountNotFound)

	_, err = f.svc.DeleteAccount(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrAccountNotFound)
}

func TestListAccountsCounts(t *testing.T) {
	f := newAdminFixture(t,
		&db_models.Account{Email: "a@example.com", Name: "Ann", Verified: true},
		&db_models.Account{Email: "b@example.com", Name: "Bob"},
	)
	f.codes.codes = append(f.codes.codes, &db_models.EmailVerificationCode{Email: "c@example.com", Code: "123456"})

	listing, err := f.svc.ListAccounts(context.Background(), "  ann ")
	require.NoError(t, err)
	assert.Equal(t, "ann", listing.Query)
	assert.Equal(t, "ann", f.accounts.listQuery)
	require.Len(t, listing.Accounts, 1)
	assert.Equal(t, int64(2), listing.Total)
	assert.Equal(t, int64(1), listing.Verified)
	assert.Equal(t, int64(1), listing.Unverified)
	assert.Len(t, listing.PendingCodes, 1)
}
