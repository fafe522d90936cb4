package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name       string
		dbErr      error
		embErr     error
		genErr     error
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"database": CheckOK, "embedding": CheckOK, "generation": CheckOK},
		},
		{
			name:       "database down",
			dbErr:      down,
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"database": CheckError, "embedding": CheckOK, "generation": CheckOK},
		},
		{
			name:       "embedding down",
			embErr:     down,
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"database": CheckOK, "embedding": CheckError, "generation": CheckOK},
		},
		{
			name:       "everything down",
			dbErr:      down,
			embErr:     down,
			genErr:     down,
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{"database": CheckError, "embedding": CheckError, "generation": CheckError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockDBPinger{err: tt.dbErr}).
				With("embedding", &mockChecker{err: tt.embErr}).
				With("generation", &mockChecker{err: tt.genErr})

			r := svc.Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", r.Status, tt.wantStatus)
			}
			for name, want := range tt.wantChecks {
				if r.Checks[name] != want {
					t.Errorf("Checks[%s] = %q, want %q", name, r.Checks[name], want)
				}
			}
		})
	}
}

func TestCheck_NilCheckerIgnored(t *testing.T) {
	svc := New(&mockDBPinger{}).With("embedding", nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}

func TestCheck_Timeout(t *testing.T) {
	slow := CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	svc := New(&mockDBPinger{}).With("executor", slow).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > 2*time.Second {
		t.Fatal("probe timeout not applied")
	}
	if r.Checks["executor"] != CheckError || r.Status != Degraded {
		t.Errorf("report = %+v", r)
	}
}
