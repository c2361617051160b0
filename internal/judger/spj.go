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
	"unicode"

	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/model"

	"go.uber.org/zap"
)

// runSpecialJudge materializes the child's stdout to a file, invokes the
// problem's adjudicator with the %OUTPUT% and %ANSWER% markers substituted,
// and parses its stdout: first line a verdict wire name, optional second
// line free-form info.
//
// An adjudicator that exits non-zero, or runs past childTimeout and is
// killed, yields SPJ Error. A missing verdict line is SPJ Error as well; a
// present but unknown one is System Error.
func (j *Judger) runSpecialJudge(dir string, prob *config.Problem, res *model.CaseResult, output []byte, answerFile string) {
	if len(prob.Misc.SpecialJudge) == 0 {
		res.Result = model.VerdictSystemError
		res.Info = "problem has no special_judge command"
		return
	}

	outputFile := filepath.Join(dir, fmt.Sprintf("case_%d.out", res.ID))
	if err := os.WriteFile(outputFile, output, 0644); err != nil {
		res.Result = model.VerdictSystemError
		res.Info = fmt.Sprintf("failed to write output file: %v", err)
		return
	}

	argv, err := expandMarkers(prob.Misc.SpecialJudge, map[string]string{
		markerOutput: outputFile,
		markerAnswer: answerFile,
	})
	if err != nil {
		res.Result = model.VerdictSystemError
		res.Info = err.Error()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), childTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	harden(cmd)
	if err := cmd.Run(); err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		zap.S().Warnf("special judge for problem %d exited abnormally: %v", prob.ID, err)
		res.Result = model.VerdictSPJError
		res.Info = fmt.Sprintf("special judge failed: %v", err)
		return
	}

	lines := strings.Split(stdout.String(), "\n")
	first := strings.TrimRightFunc(lines[0], unicode.IsSpace)
	if first == "" {
		res.Result = model.VerdictSPJError
		res.Info = "special judge produced no verdict"
		return
	}

	verdict, ok := model.ParseVerdict(first)
	if !ok {
		res.Result = model.VerdictSystemError
		res.Info = fmt.Sprintf("special judge produced unknown verdict %q", first)
		return
	}
	res.Result = verdict
	if len(lines) > 1 {
		res.Info = strings.TrimRightFunc(lines[1], unicode.IsSpace)
	}
}
