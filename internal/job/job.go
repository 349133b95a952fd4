// Package job drives the remote execution lifecycle: submit inside a scoped
// session, wait for completion, or reattach to an earlier job by identifier.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/qpuctl/internal/observability"
	"github.com/danmuck/qpuctl/internal/runtime"
	"github.com/rs/zerolog/log"
)

// Submit opens nothing itself; it enqueues one execution on an already open
// session and returns as soon as the queue accepts the job.
func Submit(ctx context.Context, sess *runtime.Session, spec runtime.JobSpec) (string, error) {
	jobID, err := sess.SubmitJob(ctx, spec)
	if err != nil {
		return "", err
	}
	log.Info().
		Str("job_id", jobID).
		Str("backend", sess.Backend()).
		Int("shots", spec.Shots).
		Msg("job accepted by remote queue")
	return jobID, nil
}

// Wait blocks until the job reaches a terminal status, then fetches the
// histogram. Cancelling ctx abandons the wait only: the remote job keeps
// running and stays retrievable by its identifier.
func Wait(ctx context.Context, client *runtime.Client, backend, jobID string) (runtime.Histogram, error) {
	start := time.Now()
	ticker := time.NewTicker(client.PollInterval())
	defer ticker.Stop()

	for {
		status, err := client.JobStatus(ctx, jobID)
		if err != nil {
			observability.RecordJobWait(backend, "poll_error", time.Since(start))
			return nil, err
		}
		switch status {
		case runtime.StatusDone:
			observability.RecordJobWait(backend, "done", time.Since(start))
			return client.JobResults(ctx, jobID)
		case runtime.StatusError:
			observability.RecordJobWait(backend, "error", time.Since(start))
			reason := client.JobError(ctx, jobID)
			if reason == "" {
				reason = "remote service reported failure"
			}
			return nil, fmt.Errorf("%w: job %s: %s", runtime.ErrExecution, jobID, reason)
		case runtime.StatusCancelled:
			observability.RecordJobWait(backend, "cancelled", time.Since(start))
			return nil, fmt.Errorf("%w: job %s was cancelled remotely", runtime.ErrExecution, jobID)
		}

		select {
		case <-ctx.Done():
			observability.RecordJobWait(backend, "abandoned", time.Since(start))
			log.Warn().
				Str("job_id", jobID).
				Msg("wait cancelled, job keeps running remotely; retrieve it later by id")
			return nil, fmt.Errorf("wait for job %s abandoned: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Run submits the program within a scoped session and waits for the result.
// The session is released on every exit path, including cancellation of the
// wait; releasing it never cancels the submitted job.
func Run(ctx context.Context, client *runtime.Client, backend string, spec runtime.JobSpec) (string, runtime.Histogram, error) {
	sess, err := client.OpenSession(ctx, backend)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("session", sess.ID()).Msg("session release failed")
		}
	}()

	jobID, err := Submit(ctx, sess, spec)
	if err != nil {
		return "", nil, err
	}

	log.Info().
		Str("job_id", jobID).
		Msg("waiting for QPU execution; queue time varies from minutes to hours, interrupt to detach")
	hist, err := Wait(ctx, client, backend, jobID)
	if err != nil {
		return jobID, nil, err
	}
	return jobID, hist, nil
}

// Retrieve polls a previously submitted job once. When the job is not yet
// done it returns ok=false with no error; lookup failures surface.
func Retrieve(ctx context.Context, client *runtime.Client, jobID string) (runtime.Histogram, bool, error) {
	status, err := client.JobStatus(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	if status != runtime.StatusDone {
		switch status {
		case runtime.StatusError:
			reason := client.JobError(ctx, jobID)
			if reason == "" {
				reason = "remote service reported failure"
			}
			return nil, false, fmt.Errorf("%w: job %s: %s", runtime.ErrExecution, jobID, reason)
		case runtime.StatusCancelled:
			return nil, false, fmt.Errorf("%w: job %s was cancelled remotely", runtime.ErrExecution, jobID)
		}
		log.Info().Str("job_id", jobID).Str("status", string(status)).Msg("job not complete yet")
		return nil, false, nil
	}
	hist, err := client.JobResults(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	return hist, true, nil
}

// Abandoned reports whether err is the cooperative early return from Wait.
func Abandoned(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
