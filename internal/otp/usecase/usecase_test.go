package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goalpass/goalpass/internal/otp/outbound/memory"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/codegen"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/validator"
)

const testConfig = `
modules:
  otp:
    code_digits: 6
    validity_window_seconds: 300
    max_generation_attempts: 3
    max_validation_attempts: 3
    allow_peek: true
`

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, address, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, address)

	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	issued    []PasscodeIssuedEvent
	validated []PasscodeValidatedEvent
}

func (f *fakePublisher) PublishPasscodeIssued(_ context.Context, msg PasscodeIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, msg)

	return nil
}

func (f *fakePublisher) PublishPasscodeValidated(_ context.Context, msg PasscodeValidatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validated = append(f.validated, msg)

	return nil
}

type testEnv struct {
	uc       *Usecase
	store    *memory.Store
	clock    *clock.Fixed
	notifier *fakeNotifier
	pub      *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	ins := instrument.NewNoop()
	store := memory.New(ins)
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}
	pub := &fakePublisher{}

	uc := New(Dependency{
		RepoDB:        store,
		RepoMessaging: pub,
		Notifier:      notifier,
		Validator:     v10,
		Config:        cfg,
		Codegen:       codegen.NewCryptoNumeric(),
		Clock:         clk,
		Instrument:    ins,
	})

	return &testEnv{uc: uc, store: store, clock: clk, notifier: notifier, pub: pub}
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected goerror, got %v", err)
	}
	if gerr.Code() != want {
		t.Fatalf("expected code %s, got %s (%v)", want, gerr.Code(), err)
	}
}

// storedCode reads the plaintext code straight from the store.
func (e *testEnv) storedCode(t *testing.T, playerID string) string {
	t.Helper()

	rec, err := e.store.Get(context.Background(), playerID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	return rec.Code
}

// wrongCode returns a well-formed code guaranteed not to match.
func wrongCode(code string) string {
	last := code[len(code)-1]
	flipped := byte('0' + (last-'0'+1)%10)

	return code[:len(code)-1] + string(flipped)
}

func TestIssueThenValidateSucceedsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := env.clock.Now().Add(5 * time.Minute); !out.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, out.ExpiresAt)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0] != "a@b.com" {
		t.Fatalf("expected one delivery to a@b.com, got %v", env.notifier.sent)
	}

	code := env.storedCode(t, "p1")
	if err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// The record is consumed; a replay sees a missing record.
	err = env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestValidateUnknownPlayer(t *testing.T) {
	env := newTestEnv(t)

	err := env.uc.Validate(context.Background(), ValidateInput{PlayerID: "ghost", ContactAddress: "a@b.com", Code: "123456"})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestValidateWrongCodeLocksEvenForCorrectCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.storedCode(t, "p1")

	for i := range 3 {
		err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: wrongCode(code)})
		assertCode(t, err, goerror.CodeUnauthorized)

		rec, gErr := env.store.Get(ctx, "p1")
		if gErr != nil {
			t.Fatalf("get record: %v", gErr)
		}
		if rec.ValidationAttempts != i+1 {
			t.Fatalf("expected %d attempts persisted, got %d", i+1, rec.ValidationAttempts)
		}
	}

	err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code})
	assertCode(t, err, goerror.CodeTooManyRequest)
}

func TestValidateContactMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.storedCode(t, "p1")

	err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "other@b.com", Code: code})
	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestMalformedCodeDoesNotBurnAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, code := range []string{"12345", "1234567", "12a456"} {
		err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code})
		assertCode(t, err, goerror.CodeInvalidFormat)
	}

	rec, err := env.store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.ValidationAttempts != 0 {
		t.Fatalf("expected no attempts burned, got %d", rec.ValidationAttempts)
	}
}

func TestIssueRateLimitedAfterCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for range 3 {
		if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p2", ContactAddress: "a@b.com"}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	_, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p2", ContactAddress: "a@b.com"})
	assertCode(t, err, goerror.CodeTooManyRequest)
}

func TestExpiredRecordReArmsIssuance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for range 3 {
		if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	env.clock.Advance(5*time.Minute + time.Second)

	out, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"})
	if err != nil {
		t.Fatalf("issue after expiry: %v", err)
	}
	if out.GenerationAttempts != 1 {
		t.Fatalf("expected generation counter reset to 1, got %d", out.GenerationAttempts)
	}
}

func TestValidateExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.storedCode(t, "p1")

	env.clock.Advance(5*time.Minute + time.Second)

	err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code})
	assertCode(t, err, goerror.CodeExpired)

	// The attempt is still persisted.
	rec, err := env.store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.ValidationAttempts != 1 {
		t.Fatalf("expected 1 attempt persisted, got %d", rec.ValidationAttempts)
	}
}

func TestIssueDeliveryFailureKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.notifier.err = errors.New("smtp unavailable")

	_, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"})
	assertCode(t, err, goerror.CodeDependency)

	// Issuance is not rolled back on delivery failure.
	env.notifier.err = nil
	code := env.storedCode(t, "p1")
	if err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code}); err != nil {
		t.Fatalf("validate against undelivered code: %v", err)
	}
}

func TestConcurrentValidatesNeverLoseAnIncrement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	bad := wrongCode(env.storedCode(t, "p1"))

	var wg sync.WaitGroup
	for range 2 {
		wg.Go(func() {
			_ = env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: bad})
		})
	}
	wg.Wait()

	rec, err := env.store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.ValidationAttempts != 2 {
		t.Fatalf("expected 2 attempts after concurrent validates, got %d", rec.ValidationAttempts)
	}
}

func TestValidatePublishesOutcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.storedCode(t, "p1")

	_ = env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: wrongCode(code)})
	if err := env.uc.Validate(ctx, ValidateInput{PlayerID: "p1", ContactAddress: "a@b.com", Code: code}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if len(env.pub.issued) != 1 {
		t.Fatalf("expected 1 issued event, got %d", len(env.pub.issued))
	}
	if len(env.pub.validated) != 2 {
		t.Fatalf("expected 2 validated events, got %d", len(env.pub.validated))
	}
	if env.pub.validated[0].Outcome != OutcomeMismatch {
		t.Fatalf("expected mismatch outcome, got %s", env.pub.validated[0].Outcome)
	}
	if env.pub.validated[1].Outcome != OutcomeSuccess {
		t.Fatalf("expected success outcome, got %s", env.pub.validated[1].Outcome)
	}
}

func TestPeekReturnsStoredRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	out, err := env.uc.Peek(ctx, PeekInput{PlayerID: "p1"})
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if out.Code != env.storedCode(t, "p1") {
		t.Fatalf("peek returned wrong code")
	}

	_, err = env.uc.Peek(ctx, PeekInput{PlayerID: "nobody"})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestPeekDisabledIndistinguishableFromMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  otp:
    allow_peek: false
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	env.uc.cfg = cfg

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = env.uc.Peek(ctx, PeekInput{PlayerID: "p1"})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestSweepExpiredKeepsGrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "a@b.com"}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Expired but inside the grace window: kept.
	env.clock.Advance(6 * time.Minute)
	deleted, err := env.uc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected nothing swept inside grace, got %d", deleted)
	}

	// Past expiry plus grace: swept.
	env.clock.Advance(5 * time.Minute)
	deleted, err = env.uc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 record swept, got %d", deleted)
	}
}

func TestIssueRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.Issue(ctx, IssueInput{PlayerID: "", ContactAddress: "a@b.com"})
	assertCode(t, err, goerror.CodeInvalidInput)

	_, err = env.uc.Issue(ctx, IssueInput{PlayerID: "p1", ContactAddress: "not-an-email"})
	assertCode(t, err, goerror.CodeInvalidInput)
}
