package gate

import (
	"bytes"
	"context"
	std_errors "errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/rungate/rungate/internal/dispatch"
	"github.com/rungate/rungate/internal/errors"
	"github.com/rungate/rungate/internal/log"
	"github.com/rungate/rungate/internal/rule"
)

// Executor runs a plan's tool invocations and aggregates the report.
type Executor struct {
	// Root is the working directory tools run in; file arguments are
	// relative to it.
	Root string

	// Fix enables fix-mode rules to rewrite files. When false, fix
	// rules run read-only via their check arguments.
	Fix bool

	// Jobs bounds concurrent tool invocations. Zero means NumCPU.
	Jobs int

	// Timeout, when positive, overrides every rule's own timeout.
	Timeout time.Duration

	// ManifestDir, when set, receives a JSON audit record per run.
	ManifestDir string

	Logger *log.Logger
}

// Run executes every scheduled rule and combines the results. Fix-mode
// rules run first, serialized within overlapping batches, so check-mode
// rules always observe post-fix file state. One tool's failure never
// prevents siblings from running; only cancellation aborts the run, and
// an aborted run yields no report. Completed results are discarded on
// abort: a partial pass must never read as a full pass.
func (e *Executor) Run(ctx context.Context, plan *dispatch.Plan) (*Report, error) {
	logger := e.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	runID := uuid.NewString()
	start := time.Now()

	logger.Debug("gate run starting",
		"run_id", runID,
		"rules", len(plan.Work()),
		"jobs", jobs,
		"fix", e.Fix)

	results := make(map[*dispatch.Work]*ToolResult, len(plan.Work()))
	sem := semaphore.NewWeighted(int64(jobs))
	done := make(chan struct{})
	resultCh := make(chan workResult, len(plan.Work()))

	go func() {
		defer close(done)
		for wr := range resultCh {
			results[wr.work] = wr.result
		}
	}()

	// Phase 1: fix-mode rules. Batches with overlapping subsets run
	// sequentially inside one goroutine; disjoint batches run
	// concurrently. Serialization is the sole mutation discipline for
	// the shared file tree.
	fixBatches := plan.FixBatches()
	fixDone := make(chan struct{}, len(fixBatches))
	for _, batch := range fixBatches {
		batch := batch
		go func() {
			defer func() { fixDone <- struct{}{} }()
			for _, w := range batch {
				if ctx.Err() != nil {
					return
				}
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				res := e.invoke(ctx, w)
				sem.Release(1)
				resultCh <- workResult{work: w, result: res}
			}
		}()
	}
	for range fixBatches {
		<-fixDone
	}

	// Phase 2: check-mode rules, freely concurrent.
	checkWork := plan.CheckWork()
	checkDone := make(chan struct{}, len(checkWork))
	for _, w := range checkWork {
		w := w
		go func() {
			defer func() { checkDone <- struct{}{} }()
			if ctx.Err() != nil {
				return
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			res := e.invoke(ctx, w)
			sem.Release(1)
			resultCh <- workResult{work: w, result: res}
		}()
	}
	for range checkWork {
		<-checkDone
	}

	close(resultCh)
	<-done

	if ctx.Err() != nil {
		logger.Warn("gate run aborted", "run_id", runID, "completed_results", len(results))
		return nil, errors.NewAbortedError(ctx.Err())
	}

	// Assemble in rule-table order regardless of completion order.
	ordered := make([]*ToolResult, 0, len(plan.Work()))
	for _, w := range plan.Work() {
		if res, ok := results[w]; ok {
			ordered = append(ordered, res)
		}
	}

	report := combine(runID, ordered, time.Since(start))

	logger.Info("gate run finished",
		"run_id", runID,
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored,
		"duration", report.Duration)

	if e.ManifestDir != "" {
		if err := SaveManifest(NewManifest(report, e.Fix), e.ManifestDir); err != nil {
			logger.WithError(err).Warn("failed to save run manifest")
		}
	}

	return report, nil
}

type workResult struct {
	work   *dispatch.Work
	result *ToolResult
}

// invoke runs one rule's tool against exactly its resolved subset. The
// whole subset goes in one invocation: tools that batch (formatters in
// particular) are cheaper that way and produce consistent results
// across the batch.
func (e *Executor) invoke(ctx context.Context, w *dispatch.Work) *ToolResult {
	r := w.Rule
	result := &ToolResult{
		RuleID: r.ID,
		Files:  w.Files,
	}

	args := r.Args
	fixing := e.Fix && r.Kind == rule.KindFix
	if !fixing && r.Kind == rule.KindFix && len(r.CheckArgs) > 0 {
		args = r.CheckArgs
	}

	argv := make([]string, 0, len(args)+len(w.Files))
	argv = append(argv, args...)
	argv = append(argv, w.Files...)

	timeout := r.EffectiveTimeout()
	if e.Timeout > 0 {
		timeout = e.Timeout
	}
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var before snapshot
	if fixing {
		before = takeSnapshot(e.Root, w.Files)
	}

	start := time.Now()

	cmd := exec.CommandContext(toolCtx, r.Entry, argv...)
	cmd.Dir = e.Root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	switch {
	case toolCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("timed out after %s", timeout)
	case err == nil:
		result.Status = StatusOK
	default:
		var exitErr *exec.ExitError
		if std_errors.As(err, &exitErr) {
			result.Status = StatusFailed
			result.ExitCode = exitErr.ExitCode()
			result.Message = fmt.Sprintf("exit status %d", exitErr.ExitCode())
		} else {
			// Could not run at all: missing executable or crash.
			result.Status = StatusError
			result.ExitCode = -1
			result.Message = err.Error()
		}
	}

	if fixing && result.Status != StatusError {
		after := takeSnapshot(e.Root, w.Files)
		result.ModifiedFiles = before.diff(after, w.Files)
		if len(result.ModifiedFiles) > 0 {
			// A file the fixer had to rewrite is a violation that
			// reached the gate; the rewrite is a convenience, not a
			// pass.
			result.Status = StatusFailed
			result.Message = fmt.Sprintf("rewrote %d file(s); re-stage and re-run", len(result.ModifiedFiles))
		}
	}

	return result
}
