package judger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/errs"
	"github.com/minioj/minioj/internal/model"
	"github.com/minioj/minioj/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellLanguage "compiles" by copying the script to the artifact path; the
// copy keeps the executable bit of the source file.
func shellLanguage() config.Language {
	return config.Language{
		Name:     "Shell",
		FileName: "main.sh",
		Command:  []string{"cp", "%INPUT%", "%OUTPUT%"},
	}
}

// brokenLanguage always fails its compile command.
func brokenLanguage() config.Language {
	return config.Language{
		Name:     "Broken",
		FileName: "main.sh",
		Command:  []string{"sh", "-c", "exit 1", "compile", "%INPUT%", "%OUTPUT%"},
	}
}

func writeCase(t *testing.T, dir, name, input, answer string, score float64, timeLimit int64) config.Case {
	t.Helper()
	in := filepath.Join(dir, name+".in")
	ans := filepath.Join(dir, name+".ans")
	require.NoError(t, os.WriteFile(in, []byte(input), 0644))
	require.NoError(t, os.WriteFile(ans, []byte(answer), 0644))
	return config.Case{Score: score, InputFile: in, AnswerFile: ans, TimeLimit: timeLimit}
}

func newJudger(t *testing.T, problems ...config.Problem) (*Judger, *store.Store) {
	t.Helper()
	cfg := &config.Config{
		Problems:  problems,
		Languages: []config.Language{shellLanguage(), brokenLanguage()},
	}
	st := store.New()
	st.Seed(cfg)
	return New(cfg, st), st
}

func submit(t *testing.T, j *Judger, source string, problemID int) *model.Job {
	t.Helper()
	job, err := j.Submit(model.Submission{
		SourceCode: source,
		Language:   "Shell",
		UserID:     0,
		ContestID:  0,
		ProblemID:  problemID,
	})
	require.NoError(t, err)
	return job
}

func TestStandardAccepted(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "aplusb",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "1\n2\n", "3\n", 100.0, 1_000_000),
		},
	}
	j, st := newJudger(t, prob)

	job := submit(t, j, "#!/bin/sh\nread a\nread b\necho $((a+b))\n", 0)

	assert.Equal(t, model.StateFinished, job.State)
	assert.Equal(t, model.VerdictAccepted, job.Result)
	assert.Equal(t, 100.0, job.Score)
	require.Len(t, job.Cases, 2)
	assert.Equal(t, model.VerdictCompilationSuccess, job.Cases[0].Result)
	assert.Equal(t, model.VerdictAccepted, job.Cases[1].Result)
	assert.GreaterOrEqual(t, job.Cases[1].Time, int64(0))

	// the finalized job is committed
	stored, err := st.Job(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictAccepted, stored.Result)
}

func TestStrictWhitespaceIsWrongAnswer(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "echo3",
		Type: config.TypeStrict,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "3\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	// no trailing newline: byte comparison must fail
	job := submit(t, j, "#!/bin/sh\nprintf 3\n", 0)

	assert.Equal(t, model.VerdictWrongAnswer, job.Result)
	assert.Equal(t, model.VerdictWrongAnswer, job.Cases[1].Result)
	assert.Equal(t, 0.0, job.Score)
}

func TestStandardToleratesTrailingSpaces(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "echo3",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "3\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	job := submit(t, j, "#!/bin/sh\necho '3   '\n", 0)

	assert.Equal(t, model.VerdictAccepted, job.Result)
}

func TestTimeLimitExceeded(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "sleepy",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "done\n", 100.0, 1_000), // 1 ms
		},
	}
	j, _ := newJudger(t, prob)

	start := time.Now()
	job := submit(t, j, "#!/bin/sh\nsleep 0.1\necho done\n", 0)

	assert.Equal(t, model.VerdictTimeLimitExceeded, job.Cases[1].Result)
	assert.Equal(t, model.VerdictTimeLimitExceeded, job.Result)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRuntimeError(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "crash",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "x\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	job := submit(t, j, "#!/bin/sh\nexit 3\n", 0)

	assert.Equal(t, model.VerdictRuntimeError, job.Cases[1].Result)
	assert.Equal(t, model.VerdictRuntimeError, job.Result)
}

func TestCompilationError(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "any",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "x\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	job, err := j.Submit(model.Submission{
		SourceCode: "whatever",
		Language:   "Broken",
		UserID:     0,
		ProblemID:  0,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StateFinished, job.State)
	assert.Equal(t, model.VerdictCompilationError, job.Result)
	require.Len(t, job.Cases, 2)
	assert.Equal(t, model.VerdictCompilationError, job.Cases[0].Result)
	// cases after a failed compile are never executed
	assert.Equal(t, model.VerdictWaiting, job.Cases[1].Result)
	assert.Equal(t, 0.0, job.Score)
}

func TestPackedSkipAndScoring(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "packed",
		Type: config.TypeStandard,
		Misc: config.Misc{Packing: [][]int{{1, 2}, {3}}},
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "bad\n", 40.0, 1_000_000),
			writeCase(t, dir, "2", "", "ok\n", 30.0, 1_000_000),
			writeCase(t, dir, "3", "", "ok\n", 30.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	job := submit(t, j, "#!/bin/sh\necho ok\n", 0)

	assert.Equal(t, model.VerdictWrongAnswer, job.Cases[1].Result)
	assert.Equal(t, model.VerdictSkipped, job.Cases[2].Result)
	assert.Equal(t, model.VerdictAccepted, job.Cases[3].Result)
	// pack 1 contributes nothing, pack 2 contributes its full score
	assert.InDelta(t, 30.0, job.Score, 1e-9)
	assert.Equal(t, model.VerdictWrongAnswer, job.Result)
}

func TestFirstFailureWinsAcrossPacks(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "firstfail",
		Type: config.TypeStandard,
		Misc: config.Misc{Packing: [][]int{{1}, {2}}},
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "bad\n", 50.0, 1_000_000),
			writeCase(t, dir, "2", "", "worse\n", 50.0, 1_000),
		},
	}
	j, _ := newJudger(t, prob)

	// case 1 is a wrong answer, case 2 would time out; the job result is
	// the first failing verdict
	job := submit(t, j, "#!/bin/sh\nsleep 0.05\necho ok\n", 0)

	assert.Equal(t, model.VerdictWrongAnswer, job.Result)
}

func TestDynamicRankingScore(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "dyn",
		Type: config.TypeDynamicRanking,
		Misc: config.Misc{DynamicRankingRatio: 0.2},
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	job := submit(t, j, "#!/bin/sh\necho ok\n", 0)

	// the run phase only awards score * (1 - r); the bonus belongs to the
	// rank engine
	assert.InDelta(t, 80.0, job.Score, 1e-9)
	assert.Equal(t, model.VerdictAccepted, job.Result)
}

func TestValidationErrors(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "any",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "x\n", 100.0, 1_000_000),
		},
	}
	j, st := newJudger(t, prob)

	cases := []struct {
		name   string
		sub    model.Submission
		reason errs.Reason
	}{
		{"unknown language", model.Submission{Language: "COBOL", UserID: 0, ProblemID: 0}, errs.ReasonNotFound},
		{"unknown problem", model.Submission{Language: "Shell", UserID: 0, ProblemID: 9}, errs.ReasonNotFound},
		{"unknown contest", model.Submission{Language: "Shell", UserID: 0, ProblemID: 0, ContestID: 7}, errs.ReasonNotFound},
		{"unknown user", model.Submission{Language: "Shell", UserID: 9, ProblemID: 0}, errs.ReasonNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := j.Submit(tc.sub)
			require.Error(t, err)
			e, ok := err.(*errs.Error)
			require.True(t, ok)
			assert.Equal(t, tc.reason, e.Reason)
		})
	}

	// no job is left behind a failed validation
	assert.Empty(t, st.Jobs())
}

func TestContestChecks(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "any",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000_000),
		},
	}
	j, st := newJudger(t, prob)
	_, err := st.PutUser(nil, "alice")
	require.NoError(t, err)

	contest := model.Contest{
		Name:            "weekly",
		From:            model.NewTimestamp(time.Now().Add(-time.Hour)),
		To:              model.NewTimestamp(time.Now().Add(time.Hour)),
		ProblemIDs:      []int{0},
		UserIDs:         []int{1},
		SubmissionLimit: 2,
	}
	_, err = st.PutContest(contest, false, j.cfg)
	require.NoError(t, err)

	// user 0 is not enrolled
	_, err = j.Submit(model.Submission{Language: "Shell", UserID: 0, ContestID: 1, ProblemID: 0})
	require.Error(t, err)
	assert.Equal(t, errs.ReasonInvalidArgument, err.(*errs.Error).Reason)

	// enrolled user, inside the window, under the limit
	ok := model.Submission{SourceCode: "#!/bin/sh\necho ok\n", Language: "Shell", UserID: 1, ContestID: 1, ProblemID: 0}
	_, err = j.Submit(ok)
	require.NoError(t, err)
	_, err = j.Submit(ok)
	require.NoError(t, err)

	// third submission trips the limit
	_, err = j.Submit(ok)
	require.Error(t, err)
	assert.Equal(t, errs.ReasonRateLimit, err.(*errs.Error).Reason)

	// a closed window rejects fresh submissions
	closed := contest
	closed.ID = 1
	closed.To = model.NewTimestamp(time.Now().Add(-time.Minute))
	_, err = st.PutContest(closed, true, j.cfg)
	require.NoError(t, err)
	_, err = j.Submit(ok)
	require.Error(t, err)
	assert.Equal(t, errs.ReasonInvalidArgument, err.(*errs.Error).Reason)
}

func TestRejudge(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "aplusb",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "1\n2\n", "3\n", 100.0, 1_000_000),
		},
	}
	j, st := newJudger(t, prob)

	job := submit(t, j, "#!/bin/sh\nread a\nread b\necho $((a+b))\n", 0)

	rejudged, err := j.Rejudge(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, rejudged.ID)
	assert.Equal(t, model.StateFinished, rejudged.State)
	assert.Equal(t, model.VerdictAccepted, rejudged.Result)
	assert.True(t, rejudged.CreatedTime.Equal(job.CreatedTime.Time))
	assert.False(t, rejudged.UpdatedTime.Before(job.UpdatedTime.Time))

	_, err = j.Rejudge(99)
	require.Error(t, err)
	assert.Equal(t, errs.ReasonNotFound, err.(*errs.Error).Reason)

	// still exactly one job
	assert.Len(t, st.Jobs(), 1)
}

func TestRejudgeIgnoresClosedWindow(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "any",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000_000),
		},
	}
	j, st := newJudger(t, prob)

	contest := model.Contest{
		Name:            "flash",
		From:            model.NewTimestamp(time.Now().Add(-time.Hour)),
		To:              model.NewTimestamp(time.Now().Add(time.Hour)),
		ProblemIDs:      []int{0},
		UserIDs:         []int{0},
		SubmissionLimit: 1,
	}
	_, err := st.PutContest(contest, false, j.cfg)
	require.NoError(t, err)

	job, err := j.Submit(model.Submission{
		SourceCode: "#!/bin/sh\necho ok\n",
		Language:   "Shell",
		UserID:     0,
		ContestID:  1,
		ProblemID:  0,
	})
	require.NoError(t, err)

	// close the window, then re-evaluate: the limit already admitted this
	// job and the window does not apply retroactively
	contest.ID = 1
	contest.To = model.NewTimestamp(time.Now().Add(-time.Minute))
	_, err = st.PutContest(contest, true, j.cfg)
	require.NoError(t, err)

	rejudged, err := j.Rejudge(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictAccepted, rejudged.Result)
}

func TestForkingSubmissionStaysBounded(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "forker",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000), // 1 ms
		},
	}
	j, _ := newJudger(t, prob)

	// the foreground command overruns the limit and a forked child would
	// keep the stdout pipe open long after; neither may stall the judge
	start := time.Now()
	job := submit(t, j, "#!/bin/sh\nsleep 5 &\nsleep 60\n", 0)

	assert.Equal(t, model.VerdictTimeLimitExceeded, job.Cases[1].Result)
	assert.Equal(t, model.VerdictTimeLimitExceeded, job.Result)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBackgroundChildDoesNotStallCase(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "daemonizer",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	// the program itself exits cleanly; only the orphan holds stdout
	start := time.Now()
	job := submit(t, j, "#!/bin/sh\necho ok\nsleep 5 &\n", 0)

	assert.Equal(t, model.VerdictAccepted, job.Cases[1].Result)
	assert.Equal(t, model.VerdictAccepted, job.Result)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCompileCommandIsBounded(t *testing.T) {
	old := childTimeout
	childTimeout = 200 * time.Millisecond
	defer func() { childTimeout = old }()

	dir := t.TempDir()
	prob := config.Problem{
		ID:   0,
		Name: "any",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000_000),
		},
	}
	cfg := &config.Config{
		Problems: []config.Problem{prob},
		Languages: []config.Language{{
			Name:     "Hung",
			FileName: "main.sh",
			Command:  []string{"sh", "-c", "sleep 60", "compile", "%INPUT%", "%OUTPUT%"},
		}},
	}
	st := store.New()
	st.Seed(cfg)
	j := New(cfg, st)

	start := time.Now()
	job, err := j.Submit(model.Submission{
		SourceCode: "whatever",
		Language:   "Hung",
		UserID:     0,
		ProblemID:  0,
	})
	require.NoError(t, err)

	assert.Equal(t, model.VerdictCompilationError, job.Cases[0].Result)
	assert.Equal(t, model.VerdictCompilationError, job.Result)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWorkDirIsRemoved(t *testing.T) {
	dir := t.TempDir()
	prob := config.Problem{
		ID:   424242,
		Name: "cleanup",
		Type: config.TypeStandard,
		Cases: []config.Case{
			writeCase(t, dir, "1", "", "ok\n", 100.0, 1_000_000),
		},
	}
	j, _ := newJudger(t, prob)

	job, err := j.Submit(model.Submission{
		SourceCode: "#!/bin/sh\necho ok\n",
		Language:   "Shell",
		UserID:     0,
		ProblemID:  424242,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictAccepted, job.Result)

	leftovers, err := filepath.Glob(filepath.Join(os.TempDir(), "424242_*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
