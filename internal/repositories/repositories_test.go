package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"foodinsight/internal/models/db_models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE email = $1`)).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	account, err := NewAccountRepository(db).FindByEmail(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Nil(t, account)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailWrapsDriverErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts"`)).WillReturnError(errors.New("connection reset"))

	account, err := NewAccountRepository(db).FindByEmail(context.Background(), "a@example.com")

	assert.Nil(t, account)
	assert.ErrorContains(t, err, "find account by email")
}

func TestDeleteCascadeRemovesDependentRows(t *testing.T) {
	db, mock := newMockDB(t)
	account := &db_models.Account{BaseModel: db_models.BaseModel{ID: uuid.New()}, Email: "user@example.com"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "observations" WHERE account_id = $1`)).
		WithArgs(account.ID).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "email_verification_codes" WHERE email = $1`)).
		WithArgs(account.Email).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "password_reset_tokens" WHERE email = $1`)).
		WithArgs(account.Email).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "accounts" WHERE id = $1`)).
		WithArgs(account.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewAccountRepository(db).DeleteCascade(context.Background(), account)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadeRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	account := &db_models.Account{BaseModel: db_models.BaseModel{ID: uuid.New()}, Email: "user@example.com"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "observations"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "email_verification_codes"`)).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := NewAccountRepository(db).DeleteCascade(context.Background(), account)

	assert.ErrorContains(t, err, "delete verification codes")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeAndCreateAccountRejectsConsumedCode(t *testing.T) {
	db, mock := newMockDB(t)
	codeID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_verification_codes" SET "used"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewVerificationCodeRepository(db).ConsumeAndCreateAccount(context.Background(), codeID, &db_models.Account{Email: "a@example.com"})

	assert.ErrorIs(t, err, ErrStaleRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeAndUpdatePassword(t *testing.T) {
	db, mock := newMockDB(t)
	tokenID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "password_reset_tokens" SET "used"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "accounts" SET "password_hash"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewResetTokenRepository(db).ConsumeAndUpdatePassword(context.Background(), tokenID, "a@example.com", "hash")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off`, escapeLike("50%_off"))
}
