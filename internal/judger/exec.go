package judger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Command markers substituted before a child process is spawned.
const (
	markerInput  = "%INPUT%"
	markerOutput = "%OUTPUT%"
	markerAnswer = "%ANSWER%"
)

// childTimeout bounds the compile and special-judge commands, which have no
// per-case time limit of their own. Variable so tests can shorten it.
var childTimeout = 30 * time.Second

// waitDelay is the grace between a child's deadline (or exit) and forcibly
// closing its I/O pipes, so Wait cannot block on an orphaned grandchild that
// inherited stdout.
const waitDelay = 100 * time.Millisecond

// harden puts the child in its own process group and kills the whole group
// on cancel. Without this, a submission that forks keeps running past its
// deadline and keeps the stdout pipe open indefinitely.
func harden(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay
}

// makeWorkDir creates the per-job scratch directory. The problem id keeps
// it recognizable; the uuid suffix keeps concurrent submissions to the same
// problem apart.
func makeWorkDir(problemID int) (string, error) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("%d_%s", problemID, uuid.New().String()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	return dir, nil
}

// expandMarkers substitutes every marker into the command template. Each
// marker must occur exactly once across the whole command.
func expandMarkers(template []string, markers map[string]string) ([]string, error) {
	counts := make(map[string]int, len(markers))
	argv := make([]string, len(template))
	for i, token := range template {
		for marker, value := range markers {
			if n := strings.Count(token, marker); n > 0 {
				counts[marker] += n
				token = strings.ReplaceAll(token, marker, value)
			}
		}
		argv[i] = token
	}
	for marker := range markers {
		if counts[marker] != 1 {
			return nil, fmt.Errorf("command must contain %s exactly once, found %d", marker, counts[marker])
		}
	}
	return argv, nil
}

// compile runs the language command as case 0, recording its wall-clock
// time. Returns false if judging must stop here. A compiler that runs past
// childTimeout is killed and treated as a compilation failure.
func (j *Judger) compile(job *model.Job, argv []string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), childTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	harden(cmd)

	start := time.Now()
	err := cmd.Run()
	job.Cases[0].Time = time.Since(start).Microseconds()

	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			job.Cases[0].Result = model.VerdictCompilationError
			job.Result = model.VerdictCompilationError
		} else {
			// The compiler could not be spawned at all.
			zap.S().Errorf("job %d: failed to invoke compiler: %v", job.ID, err)
			job.Cases[0].Result = model.VerdictSystemError
			job.Result = model.VerdictSystemError
		}
		return false
	}

	job.Cases[0].Result = model.VerdictCompilationSuccess
	return true
}

// runCase executes the compiled artifact against one case: pipe the input
// file to stdin, wait up to the time limit, then compare stdout with the
// expected answer under the problem's policy.
func (j *Judger) runCase(dir, artifact string, prob *config.Problem, caseID int) model.CaseResult {
	cs := prob.Cases[caseID-1]
	res := model.CaseResult{ID: caseID, Result: model.VerdictWaiting}

	input, err := os.Open(cs.InputFile)
	if err != nil {
		res.Result = model.VerdictSystemError
		res.Info = fmt.Sprintf("failed to open input file: %v", err)
		return res
	}
	defer input.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cs.TimeLimit)*time.Microsecond)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, artifact)
	cmd.Stdin = input
	cmd.Stdout = &stdout
	harden(cmd)

	start := time.Now()
	err = cmd.Run()
	res.Time = time.Since(start).Microseconds()

	if ctx.Err() == context.DeadlineExceeded {
		res.Result = model.VerdictTimeLimitExceeded
		return res
	}
	// ErrWaitDelay means the process itself exited cleanly and only an
	// orphaned descendant still held the stdout pipe.
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Result = model.VerdictRuntimeError
		} else {
			zap.S().Errorf("failed to spawn user program %s: %v", artifact, err)
			res.Result = model.VerdictSystemError
		}
		return res
	}

	answer, err := os.ReadFile(cs.AnswerFile)
	if err != nil {
		res.Result = model.VerdictSystemError
		res.Info = fmt.Sprintf("failed to read answer file: %v", err)
		return res
	}

	switch prob.Type {
	case config.TypeStrict:
		if stdout.String() == string(answer) {
			res.Result = model.VerdictAccepted
		} else {
			res.Result = model.VerdictWrongAnswer
		}
	case config.TypeSPJ:
		j.runSpecialJudge(dir, prob, &res, stdout.Bytes(), cs.AnswerFile)
	default: // standard and dynamic_ranking
		if linesEqual(stdout.String(), string(answer)) {
			res.Result = model.VerdictAccepted
		} else {
			res.Result = model.VerdictWrongAnswer
		}
	}
	return res
}
