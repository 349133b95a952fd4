package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/qpuctl/internal/credentials"
	"github.com/danmuck/qpuctl/internal/testutil/runtimetest"
	"github.com/danmuck/qpuctl/internal/testutil/testlog"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		RequestTimeout: 2 * time.Second,
		PollInterval:   10 * time.Millisecond,
	}
}

func testCreds() credentials.Credentials {
	return credentials.Credentials{APIKey: "test-key", Instance: "crn:test"}
}

func TestConnectDirect(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New()
	defer srv.Close()

	client, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if client.PollInterval() != 10*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", client.PollInterval())
	}
}

func TestConnectSaveAndRetryFallback(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New(runtimetest.WithSaveRequired())
	defer srv.Close()

	if _, err := Connect(context.Background(), testCreds(), testConfig(srv.URL())); err != nil {
		t.Fatalf("connect with save fallback: %v", err)
	}
}

func TestConnectBadTokenWrapsConnectionError(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New(runtimetest.WithAPIKey("other-key"))
	defer srv.Close()

	_, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestBackendsAppliesAdapterDefaults(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New(runtimetest.WithBackends(
		runtimetest.Backend{
			Name:        "ibm_full",
			NumQubits:   127,
			Operational: runtimetest.BoolPtr(false),
			PendingJobs: runtimetest.IntPtr(42),
			Simulator:   runtimetest.BoolPtr(false),
		},
		runtimetest.Backend{Name: "ibm_sparse", NumQubits: 5},
	))
	defer srv.Close()

	client, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	infos, err := client.Backends(context.Background())
	if err != nil {
		t.Fatalf("backends: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(infos))
	}

	byName := map[string]BackendInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	full := byName["ibm_full"]
	if full.Operational || full.PendingJobs != 42 || full.Simulator {
		t.Fatalf("declared fields not honored: %+v", full)
	}
	sparse := byName["ibm_sparse"]
	if !sparse.Operational {
		t.Fatalf("missing operational flag should default true: %+v", sparse)
	}
	if sparse.PendingJobs != 0 {
		t.Fatalf("missing pending jobs should default 0: %+v", sparse)
	}
	if !sparse.Simulator {
		t.Fatalf("backend that does not declare hardware must not count as hardware: %+v", sparse)
	}
}

func TestSessionSubmitAndClose(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New()
	defer srv.Close()

	client, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sess, err := client.OpenSession(context.Background(), "ibm_test")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	jobID, err := sess.SubmitJob(context.Background(), JobSpec{Program: "OPENQASM 2.0;", Shots: 100})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if jobID == "" {
		t.Fatalf("expected a job id")
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !srv.SessionClosed(sess.ID()) {
		t.Fatalf("session %s not released on server", sess.ID())
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close should be idempotent: %v", err)
	}
}

func TestSubmitJobRejectsBadShots(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New()
	defer srv.Close()

	client, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sess, err := client.OpenSession(context.Background(), "ibm_test")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer sess.Close()

	if _, err := sess.SubmitJob(context.Background(), JobSpec{Program: "OPENQASM 2.0;", Shots: 0}); err == nil {
		t.Fatalf("expected shots validation error")
	}
}

func TestJobStatusUnknownIDIsLookupError(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New()
	defer srv.Close()

	client, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := client.JobStatus(context.Background(), "job-nope"); !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestJobResultsValidatesHistogram(t *testing.T) {
	testlog.Start(t)
	srv := runtimetest.New()
	srv.SeedJob("job-good", runtimetest.JobScript{
		Statuses: []string{"done"},
		Counts:   map[string]int{"11": 820, "00": 60, "01": 70, "10": 50},
		Width:    2,
	})
	srv.SeedJob("job-ragged", runtimetest.JobScript{
		Statuses: []string{"done"},
		Counts:   map[string]int{"11": 10, "110": 5},
		Width:    2,
	})
	defer srv.Close()

	client, err := Connect(context.Background(), testCreds(), testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	hist, err := client.JobResults(context.Background(), "job-good")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if hist.TotalShots() != 1000 {
		t.Fatalf("expected 1000 total shots, got %d", hist.TotalShots())
	}

	if _, err := client.JobResults(context.Background(), "job-ragged"); !errors.Is(err, ErrExecution) {
		t.Fatalf("expected ErrExecution for ragged histogram, got %v", err)
	}
}
