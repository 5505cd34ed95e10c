/*
Package clipper admits clip jobs and runs them one at a time.

A Queue owns a bounded set of pending job keys, an unbounded FIFO hand-off
and a single executor goroutine. AddJob checks capacity and duplicates,
records the key and hands the job to the executor in one critical section,
so two callers can never both take the last slot.

The executor checks that the source exists, calls the Runner and always
releases the key afterwards. Failures are appended to a failure log as
"clip '<name>': <error>"; a panicking Runner is recovered and logged the same
way. Success hooks run after the key has been released.

	q := clipper.New(clipper.Config{MaxQueueSize: 4}, transcoder.New("ffmpeg"),
	    clipper.WithSuccessHook(recordHistory))
	defer q.Shutdown(ctx)

	job, err := clipper.NewJob(spec)
	if err == nil {
	    err = q.AddJob(job)
	}
	switch {
	case errors.Is(err, clipper.ErrQueueFull):    // 429
	case errors.Is(err, clipper.ErrDuplicateJob): // 409
	}

Close stops admission. Jobs already handed off still run, and AddJob after
Close returns ErrQueueClosed without leaving its key behind.
*/
package clipper
