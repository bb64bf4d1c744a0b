package simapi

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// Tick advances the simulation by a single step of the given size, in
// seconds.
func (s *Simulation) Tick(ctx context.Context, step float64) error {
	return s.TickDuration(ctx, step, step)
}

// TickDuration advances the simulation by duration seconds in increments of
// step seconds. The service executes the request as an asynchronous job;
// the call polls until the job completes or ctx is cancelled.
func (s *Simulation) TickDuration(ctx context.Context, duration, step float64) error {
	if step <= 0 {
		return fmt.Errorf("simapi: tick step must be positive, got %g", step)
	}
	if duration < step {
		return fmt.Errorf("simapi: tick duration %g is shorter than step %g", duration, step)
	}

	body := struct {
		Duration float64 `json:"duration"`
		Step     float64 `json:"step"`
	}{Duration: duration, Step: step}

	var resp struct {
		Job uuid.UUID `json:"job"`
	}
	path := fmt.Sprintf("/v1/sessions/%s/tick", s.id)
	if err := s.c.do(ctx, "tick", "POST", path, body, &resp); err != nil {
		return err
	}

	if err := s.waitForJob(ctx, resp.Job); err != nil {
		return err
	}
	s.c.metrics.AddTickSeconds(duration)
	return nil
}

type jobStatus struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// errJobRunning drives the poll loop; it never escapes waitForJob.
var errJobRunning = fmt.Errorf("simapi: job still running")

func (s *Simulation) waitForJob(ctx context.Context, job uuid.UUID) error {
	path := fmt.Sprintf("/v1/sessions/%s/jobs/%s", s.id, job)

	poll := func() (struct{}, error) {
		var status jobStatus
		if err := s.c.do(ctx, "job.poll", "GET", path, nil, &status); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		switch status.State {
		case "complete":
			return struct{}{}, nil
		case "failed":
			return struct{}{}, backoff.Permanent(fmt.Errorf("simapi: tick job failed: %s", status.Error))
		default:
			return struct{}{}, errJobRunning
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	_, err := backoff.Retry(ctx, poll,
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(0), // ticks can legitimately run for a long time
	)
	return err
}
