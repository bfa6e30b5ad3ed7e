// Package workerpool implements C4: a bounded fan-out of independent
// OS-process jobs. Scheduling is cooperative on the parent side (it decides
// when to start each child) and preemptive across children (the OS
// schedules the processes). The pool never retries a failed child; any
// non-zero exit is fatal to the caller (spec.md §4.4, §5).
package workerpool

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rpaudel42/plads/internal/concurrency"
)

// Pool bounds the number of child processes running at once.
type Pool struct {
	limit   int
	sem     *semaphore.Weighted
	pids    *concurrency.SafeSet
	mu      sync.Mutex
	running map[string]*exec.Cmd // pid string -> cmd, for Wait()
	errs    []error
}

// New returns a Pool that runs at most limit children concurrently.
func New(limit int) *Pool {
	if limit <= 0 {
		limit = 1
	}
	return &Pool{
		limit:   limit,
		sem:     semaphore.NewWeighted(int64(limit)),
		pids:    concurrency.NewSafeSet(),
		running: make(map[string]*exec.Cmd),
	}
}

// Limit returns the configured concurrency bound.
func (p *Pool) Limit() int {
	return p.limit
}

// Reset clears a finished round's bookkeeping (recorded errors and the
// completed-job map) so the same Pool can drive another independent
// spawn/AwaitAll round — one per S0/S4/S6 mining phase — without
// re-acquiring a fresh semaphore.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = nil
	p.running = make(map[string]*exec.Cmd)
}

// Spawn starts cmd as a child process once a pool slot is free, recording
// its PID in the in-memory job-id set (spec.md §4.4's pids.txt analogue).
// Spawn itself blocks only on acquiring a free slot, not on the child's
// completion — that happens in AwaitAll.
func (p *Pool) Spawn(ctx context.Context, cmd *exec.Cmd) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("workerpool: acquire slot: %w", err)
	}
	if err := cmd.Start(); err != nil {
		p.sem.Release(1)
		return fmt.Errorf("workerpool: start %q: %w", cmd.Path, err)
	}

	pid := cmd.Process.Pid
	key := strconv.Itoa(pid)
	p.pids.Add(key)

	p.mu.Lock()
	p.running[key] = cmd
	p.mu.Unlock()

	// Release the slot and record the exit outcome in the background; the
	// parent observes completion through AwaitAll's poll, never by
	// blocking Spawn itself (spec.md §4.4 — cooperative dispatch,
	// preemptive execution).
	go func() {
		defer p.sem.Release(1)
		err := cmd.Wait()
		p.mu.Lock()
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("workerpool: child pid %d (%s): %w", pid, cmd.Path, err))
		}
		p.mu.Unlock()
		p.pids.Remove(key)
	}()

	return nil
}

// AwaitAll blocks until every spawned child has terminated, polling at
// ~1Hz so slow workers are tolerated without busy-waiting (spec.md §4.4).
// It returns the first recorded non-zero-exit error, if any.
func (p *Pool) AwaitAll(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		if p.pids.Len() == 0 {
			return p.firstError()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Pool) firstError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs[0]
}

// Pending returns the number of jobs currently in flight.
func (p *Pool) Pending() int {
	return p.pids.Len()
}
