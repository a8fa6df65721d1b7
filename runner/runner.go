package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/jesspatton/testexplorer/logging"
)

// killGrace bounds how long Wait blocks on output after a cancelled command
// has been killed.
const killGrace = 2 * time.Second

// Update is sent on Runner.Updates. Every update carries the id of the job
// that produced it so stale output from a cancelled job can be dropped.
type Update interface {
	Job() string
}

// OutputUpdate is one line of output, stripped of ANSI escapes.
type OutputUpdate struct {
	JobID string
	Line  string
}

func (u OutputUpdate) Job() string { return u.JobID }

// StatusUpdate is the last update of a job. Err is nil when the command
// exited with status zero.
type StatusUpdate struct {
	JobID string
	Err   error
}

func (u StatusUpdate) Job() string { return u.JobID }

type Runner struct {
	mu      sync.Mutex
	current string
	cancel  context.CancelFunc
	Updates chan Update

	done      chan struct{}
	closeOnce sync.Once
}

func NewRunner() *Runner {
	return &Runner{
		Updates: make(chan Update, 100),
		done:    make(chan struct{}),
	}
}

// Run starts job in the background. A job still running is killed first.
func (r *Runner) Run(job *TestJob) {
	log := logging.For("runner")

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.current = job.ID

	cmd := exec.CommandContext(ctx, job.Command, job.Args...)
	cmd.Dir = job.Root
	cmd.Env = job.Env
	prepareCommand(cmd)
	r.mu.Unlock()

	log.Debug().Str("job", job.ID).Str("test", job.TestID).Str("cmd", cmd.String()).Msg("starting")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.fail(job.ID, "Error creating stdout pipe", err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.fail(job.ID, "Error creating stderr pipe", err)
		return
	}

	if err := cmd.Start(); err != nil {
		r.fail(job.ID, "Error starting command", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.stream(ctx, job.ID, stdout)
	}()
	go func() {
		defer wg.Done()
		r.stream(ctx, job.ID, stderr)
	}()

	go func() {
		// Pipes must be drained before Wait closes them.
		wg.Wait()
		err := cmd.Wait()

		r.mu.Lock()
		if r.current == job.ID {
			r.current = ""
			r.cancel = nil
		}
		r.mu.Unlock()

		log.Debug().Str("job", job.ID).Err(err).Msg("finished")
		r.send(ctx, StatusUpdate{JobID: job.ID, Err: err})
	}()
}

func (r *Runner) fail(jobID, msg string, err error) {
	r.mu.Lock()
	if r.current == jobID {
		r.current = ""
		r.cancel = nil
	}
	r.mu.Unlock()

	ctx := context.Background()
	r.send(ctx, OutputUpdate{JobID: jobID, Line: fmt.Sprintf("%s: %v", msg, err)})
	r.send(ctx, StatusUpdate{JobID: jobID, Err: err})
}

// stream reads rd to the end. Lines that cannot be delivered are dropped so
// the pipe keeps draining.
func (r *Runner) stream(ctx context.Context, jobID string, rd io.Reader) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		r.send(ctx, OutputUpdate{JobID: jobID, Line: stripansi.Strip(scanner.Text())})
	}
}

// send blocks until u is delivered, the runner is closed, or the job is
// cancelled. A cancelled job still reports when there is room in Updates.
func (r *Runner) send(ctx context.Context, u Update) bool {
	select {
	case r.Updates <- u:
		return true
	case <-r.done:
		return false
	case <-ctx.Done():
	}

	select {
	case r.Updates <- u:
		return true
	default:
		return false
	}
}

// Current returns the id of the running job, empty when idle.
func (r *Runner) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Close kills the current command and stops delivering updates, so no job
// goroutine waits on a reader that has gone away. The runner cannot be used
// afterwards.
func (r *Runner) Close() {
	r.Kill()
	r.closeOnce.Do(func() { close(r.done) })
}

// Kill stops the current command.
func (r *Runner) Kill() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}
