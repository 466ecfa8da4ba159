package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/internal/repositories"
)

type fakeAccountRepo struct {
	mu        sync.Mutex
	accounts  map[string]*db_models.Account
	calls     int
	deleted   []string
	listQuery string
	err       error
}

func newFakeAccountRepo(accounts ...*db_models.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: map[string]*db_models.Account{}}
	for _, a := range accounts {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		r.accounts[a.Email] = a
	}
	return r
}

func (r *fakeAccountRepo) FindById(_ context.Context, id string) (*db_models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	for _, a := range r.accounts {
		if a.ID.String() == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*db_models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.accounts[email], nil
}

func (r *fakeAccountRepo) List(_ context.Context, query string) ([]db_models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listQuery = query
	var out []db_models.Account
	for _, a := range r.accounts {
		if query == "" || strings.Contains(strings.ToLower(a.Email+a.Name), strings.ToLower(query)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) CountByVerified(context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var verified int64
	for _, a := range r.accounts {
		if a.Verified {
			verified++
		}
	}
	return int64(len(r.accounts)), verified, nil
}

func (r *fakeAccountRepo) DeleteCascade(_ context.Context, account *db_models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, account.Email)
	r.deleted = append(r.deleted, account.Email)
	return nil
}

func (r *fakeAccountRepo) put(a *db_models.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.accounts[a.Email] = a
}

type fakeCodeRepo struct {
	codes    []*db_models.EmailVerificationCode
	accounts *fakeAccountRepo
	replaced int
	// consumeErr simulates a concurrent consumer winning the race.
	consumeErr error
}

func (r *fakeCodeRepo) FindLatestUnused(_ context.Context, email string) (*db_models.EmailVerificationCode, error) {
	var latest *db_models.EmailVerificationCode
	for _, c := range r.codes {
		if c.Email == email && !c.Used && (latest == nil || c.CreatedAt >= latest.CreatedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (r *fakeCodeRepo) FindUnusedByEmailAndCode(_ context.Context, email, code string) (*db_models.EmailVerificationCode, error) {
	for _, c := range r.codes {
		if c.Email == email && c.Code == code && !c.Used {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCodeRepo) ReplaceForEmail(_ context.Context, code *db_models.EmailVerificationCode) error {
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Email != code.Email {
			kept = append(kept, c)
		}
	}
	code.ID = uuid.New()
	code.CreatedAt = int64(r.replaced)
	r.codes = append(kept, code)
	r.replaced++
	return nil
}

func (r *fakeCodeRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeCodeRepo) DeleteByEmail(_ context.Context, email string) error {
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Email != email {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeCodeRepo) markUsed(id uuid.UUID) error {
	if r.consumeErr != nil {
		return r.consumeErr
	}
	for _, c := range r.codes {
		if c.ID == id && !c.Used {
			c.Used = true
			return nil
		}
	}
	return repositories.ErrStaleRecord
}

func (r *fakeCodeRepo) ConsumeAndCreateAccount(_ context.Context, codeID uuid.UUID, account *db_models.Account) error {
	if err := r.markUsed(codeID); err != nil {
		return err
	}
	r.accounts.put(account)
	return nil
}

func (r *fakeCodeRepo) ConsumeAndVerifyAccount(_ context.Context, codeID uuid.UUID, accountID uuid.UUID) error {
	if err := r.markUsed(codeID); err != nil {
		return err
	}
	a, _ := r.accounts.FindById(context.Background(), accountID.String())
	if a != nil {
		a.Verified = true
	}
	return nil
}

func (r *fakeCodeRepo) ListUnused(_ context.Context, limit int) ([]db_models.EmailVerificationCode, error) {
	var out []db_models.EmailVerificationCode
	for _, c := range r.codes {
		if !c.Used && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeTokenRepo struct {
	tokens   []*db_models.PasswordResetToken
	accounts *fakeAccountRepo
}

func (r *fakeTokenRepo) FindByToken(_ context.Context, token string) (*db_models.PasswordResetToken, error) {
	for _, t := range r.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) ReplaceForEmail(_ context.Context, token *db_models.PasswordResetToken) error {
	kept := r.tokens[:0]
	for _, t := range r.tokens {
		if t.Email != token.Email {
			kept = append(kept, t)
		}
	}
	token.ID = uuid.New()
	r.tokens = append(kept, token)
	return nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.tokens[:0]
	for _, t := range r.tokens {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.tokens = kept
	return nil
}

func (r *fakeTokenRepo) ConsumeAndUpdatePassword(_ context.Context, tokenID uuid.UUID, email, passwordHash string) error {
	for _, t := range r.tokens {
		if t.ID == tokenID {
			if t.Used {
				return repositories.ErrStaleRecord
			}
			a, _ := r.accounts.FindByEmail(context.Background(), email)
			if a == nil {
				return repositories.ErrAccountMissing
			}
			t.Used = true
			a.PasswordHash = passwordHash
			return nil
		}
	}
	return repositories.ErrStaleRecord
}

type fakeObservationRepo struct {
	observations []db_models.Observation
	insertErr    error
}

func (r *fakeObservationRepo) Insert(_ context.Context, o *db_models.Observation) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	o.ID = uuid.New()
	r.observations = append(r.observations, *o)
	return nil
}

func (r *fakeObservationRepo) ListByAccount(_ context.Context, accountID uuid.UUID, limit int) ([]db_models.Observation, error) {
	var out []db_models.Observation
	for i := len(r.observations) - 1; i >= 0; i-- {
		if r.observations[i].AccountID == accountID {
			out = append(out, r.observations[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeObservationRepo) ImageNamesByAccount(_ context.Context, accountID uuid.UUID) ([]string, error) {
	var names []string
	for _, o := range r.observations {
		if o.AccountID == accountID {
			names = append(names, o.FoodImage)
		}
	}
	return names, nil
}

type sentMail struct {
	kind, to, payload string
}

type fakeMail struct {
	sent   []sentMail
	result response_models.DeliveryResult
}

func newFakeMail() *fakeMail { return &fakeMail{result: response_models.Delivered()} }

func (m *fakeMail) SendVerificationCode(_ context.Context, to, code string) response_models.DeliveryResult {
	m.sent = append(m.sent, sentMail{"otp", to, code})
	return m.result
}

func (m *fakeMail) SendPasswordReset(_ context.Context, to, link string) response_models.DeliveryResult {
	m.sent = append(m.sent, sentMail{"reset", to, link})
	return m.result
}

func (m *fakeMail) Diagnose(context.Context) []response_models.MailCheck { return nil }

func (m *fakeMail) Provider() string { return "fake" }

type fakeStorage struct {
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newFakeStorage() *fakeStorage { return &fakeStorage{files: map[string][]byte{}} }

func (s *fakeStorage) Save(_ context.Context, original string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + original
	s.files[name] = b
	return name, nil
}

func (s *fakeStorage) Path(name string) (string, error) {
	if _, ok := s.files[name]; !ok {
		return "", errors.New("not found")
	}
	return "/tmp/" + name, nil
}

func (s *fakeStorage) Delete(_ context.Context, name string) error {
	delete(s.files, name)
	s.deleted = append(s.deleted, name)
	return nil
}

type fakeVision struct {
	text     string
	err      error
	prompt   string
	mimeType string
}

func (v *fakeVision) DescribeImage(_ context.Context, prompt, mimeType string, _ []byte) (string, error) {
	v.prompt = prompt
	v.mimeType = mimeType
	return v.text, v.err
}

func (v *fakeVision) Close() error { return nil }
