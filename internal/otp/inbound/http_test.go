package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goalpass/goalpass/internal/otp/usecase"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/router"
	"github.com/goalpass/goalpass/internal/pkg/uid"
)

type stubUC struct {
	issueErr    error
	validateErr error
	peekErr     error
}

func (s *stubUC) Issue(context.Context, usecase.IssueInput) (*usecase.IssueOutput, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}

	return &usecase.IssueOutput{ExpiresAt: time.Now().Add(5 * time.Minute), GenerationAttempts: 1}, nil
}

func (s *stubUC) Validate(context.Context, usecase.ValidateInput) error {
	return s.validateErr
}

func (s *stubUC) Peek(context.Context, usecase.PeekInput) (*usecase.PeekOutput, error) {
	if s.peekErr != nil {
		return nil, s.peekErr
	}

	return &usecase.PeekOutput{PlayerID: "p1", Code: "482193"}, nil
}

func newTestRouter(t *testing.T, uc uc) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: []\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc)

	return r
}

func request(t *testing.T, r *router.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestIssueStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"rate limited", goerror.NewBusiness("too many passcode requests", goerror.CodeTooManyRequest), http.StatusTooManyRequests},
		{"delivery failed", goerror.NewBusiness("passcode was generated but could not be delivered", goerror.CodeDependency), http.StatusBadGateway},
		{"invalid input", goerror.NewInvalidInput(nil, "email", "must be a valid address"), http.StatusUnprocessableEntity},
		{"storage failure", goerror.NewServer(context.DeadlineExceeded), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &stubUC{issueErr: tc.err})

			rec := request(t, r, http.MethodPost, "/api/v1/players/p1/otp", `{"email":"a@b.com"}`)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestValidateStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"accepted", nil, http.StatusOK},
		{"not found", goerror.NewBusiness("no active passcode", goerror.CodeNotFound), http.StatusNotFound},
		{"malformed", goerror.NewInvalidFormat("passcode must be exactly 6 digits"), http.StatusBadRequest},
		{"locked", goerror.NewBusiness("too many failed attempts", goerror.CodeTooManyRequest), http.StatusTooManyRequests},
		{"mismatch", goerror.NewBusiness("incorrect passcode", goerror.CodeUnauthorized), http.StatusUnauthorized},
		{"expired", goerror.NewBusiness("passcode has expired", goerror.CodeExpired), http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &stubUC{validateErr: tc.err})

			rec := request(t, r, http.MethodPost, "/api/v1/players/p1/otp/validate", `{"email":"a@b.com","otp":"482193"}`)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestValidateRejectsBadBody(t *testing.T) {
	r := newTestRouter(t, &stubUC{})

	rec := request(t, r, http.MethodPost, "/api/v1/players/p1/otp/validate", `{"email":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestPeekStatusCodes(t *testing.T) {
	r := newTestRouter(t, &stubUC{})
	rec := request(t, r, http.MethodGet, "/api/v1/players/p1/otp", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "482193") {
		t.Fatalf("expected code in peek response, got %s", rec.Body.String())
	}

	r = newTestRouter(t, &stubUC{peekErr: goerror.NewBusiness("no active passcode", goerror.CodeNotFound)})
	rec = request(t, r, http.MethodGet, "/api/v1/players/p1/otp", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
