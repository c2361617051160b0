// Package judger runs submissions: it validates them against the config and
// registries, compiles the source, executes every case under its time
// limit, applies the problem's comparison policy and aggregates packed
// scores into a finalized job.
//
// A judge run owns a private copy of the job and touches no registry lock
// while child processes execute; the caller commits the result afterwards.
package judger

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/errs"
	"github.com/minioj/minioj/internal/model"
	"github.com/minioj/minioj/internal/store"

	"go.uber.org/zap"
)

// scoreEpsilon absorbs float drift between the per-case sum and the single
// 100*(1-r) product.
const scoreEpsilon = 1e-6

type Judger struct {
	cfg   *config.Config
	store *store.Store
}

func New(cfg *config.Config, st *store.Store) *Judger {
	return &Judger{cfg: cfg, store: st}
}

// Submit validates a submission, allocates a job id and judges it
// synchronously. Pre-execution failures return an error and leave no job
// behind the validation; failures after the compile starts are embedded in
// the returned job as verdicts.
func (j *Judger) Submit(sub model.Submission) (*model.Job, error) {
	if err := j.validate(sub, -1); err != nil {
		return nil, err
	}

	job := j.store.NewJob(sub)
	j.run(job)
	if err := j.store.CommitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Rejudge re-runs the stored submission of an existing job from Queueing.
// The contest window is not re-checked: the submission was legal when it
// was made. The submission limit counts the other jobs of the triple, so a
// rerun never fails the limit it already passed.
func (j *Judger) Rejudge(id int) (*model.Job, error) {
	job, err := j.store.Job(id)
	if err != nil {
		return nil, err
	}
	if err := j.validate(job.Submission, job.ID); err != nil {
		return nil, err
	}

	j.run(job)
	if err := j.store.CommitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// validate applies the pre-execution checks: language, then problem, then
// contest constraints, then user existence. rerunJobID is -1 for a
// fresh submission; otherwise the job being re-evaluated, which relaxes the
// window and limit checks.
func (j *Judger) validate(sub model.Submission, rerunJobID int) error {
	if _, ok := j.cfg.LanguageByName(sub.Language); !ok {
		return errs.NotFound("Language %s not found.", sub.Language)
	}
	if _, ok := j.cfg.ProblemByID(sub.ProblemID); !ok {
		return errs.NotFound("Problem %d not found.", sub.ProblemID)
	}

	if sub.ContestID != store.GlobalContestID {
		contest, err := j.store.Contest(sub.ContestID)
		if err != nil {
			return err
		}
		if !contest.HasUser(sub.UserID) {
			return errs.InvalidArgument("User %d is not in contest %d.", sub.UserID, sub.ContestID)
		}
		if !contest.HasProblem(sub.ProblemID) {
			return errs.InvalidArgument("Problem %d is not in contest %d.", sub.ProblemID, sub.ContestID)
		}
		if rerunJobID < 0 {
			now := time.Now()
			if now.Before(contest.From.Time) || now.After(contest.To.Time) {
				return errs.InvalidArgument("Submission out of contest time window.")
			}
		}
		count := j.store.CountContestJobs(sub.ContestID, sub.UserID, sub.ProblemID, rerunJobID)
		if count >= contest.SubmissionLimit {
			return errs.RateLimit("Submission limit of contest %d exceeded.", sub.ContestID)
		}
	}

	if _, err := j.store.User(sub.UserID); err != nil {
		return err
	}
	return nil
}

// run drives the whole pipeline on the caller's job copy: preparation,
// compile step, packed case execution, finalization. It never returns an
// error; everything after validation is expressed through verdicts.
func (j *Judger) run(job *model.Job) {
	lang, _ := j.cfg.LanguageByName(job.Submission.Language)
	prob, _ := j.cfg.ProblemByID(job.Submission.ProblemID)
	ratio := prob.Ratio()

	job.State = model.StateQueueing
	job.Result = model.VerdictWaiting
	job.Score = 0
	job.Cases = make([]model.CaseResult, len(prob.Cases)+1)
	for i := range job.Cases {
		job.Cases[i] = model.CaseResult{ID: i, Result: model.VerdictWaiting}
	}
	job.UpdatedTime = model.Now()

	dir, err := makeWorkDir(prob.ID)
	if err != nil {
		j.fail(job, model.VerdictSystemError, err)
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			zap.S().Warnf("failed to remove working directory %s: %v", dir, err)
		}
	}()

	source := filepath.Join(dir, lang.FileName)
	artifact := filepath.Join(dir, fmt.Sprintf("job_%d", job.Submission.UserID))
	argv, err := expandMarkers(lang.Command, map[string]string{
		markerInput:  source,
		markerOutput: artifact,
	})
	if err != nil {
		j.fail(job, model.VerdictSystemError, err)
		return
	}
	if err := os.WriteFile(source, []byte(job.Submission.SourceCode), 0755); err != nil {
		j.fail(job, model.VerdictSystemError, err)
		return
	}

	if !j.compile(job, argv) {
		job.State = model.StateFinished
		job.UpdatedTime = model.Now()
		return
	}
	job.State = model.StateRunning

	for _, pack := range prob.Packs() {
		accepted := true
		packScore := 0.0
		for _, caseID := range pack {
			if caseID < 1 || caseID > len(prob.Cases) {
				zap.S().Errorf("job %d: packing references case %d out of range", job.ID, caseID)
				accepted = false
				packScore = 0
				if job.Result == model.VerdictWaiting {
					job.Result = model.VerdictSystemError
				}
				continue
			}
			if !accepted {
				job.Cases[caseID].Result = model.VerdictSkipped
				continue
			}

			res := j.runCase(dir, artifact, prob, caseID)
			job.Cases[caseID] = res
			if res.Result == model.VerdictAccepted {
				packScore += prob.Cases[caseID-1].Score * (1 - ratio)
			} else {
				accepted = false
				packScore = 0
				if job.Result == model.VerdictWaiting {
					job.Result = res.Result
				}
			}
		}
		job.Score += packScore
	}

	if job.Result == model.VerdictWaiting && math.Abs(job.Score-100*(1-ratio)) < scoreEpsilon {
		job.Result = model.VerdictAccepted
	}
	job.State = model.StateFinished
	job.UpdatedTime = model.Now()

	zap.S().Infof("job %d finished: %s, score %.2f", job.ID, job.Result, job.Score)
}

// fail finalizes a job that broke before any case could run.
func (j *Judger) fail(job *model.Job, verdict model.Verdict, err error) {
	zap.S().Errorf("job %d failed: %v", job.ID, err)
	job.Result = verdict
	job.State = model.StateFinished
	job.UpdatedTime = model.Now()
}
