// Package rank computes contest rank lists: one effective score per
// (user, problem) under the scoring rule, a runtime bonus for
// dynamic_ranking problems, a total order under the tie-breaker and dense
// rank assignment.
package rank

import (
	"sort"

	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/model"
	"github.com/minioj/minioj/internal/store"
)

type ScoringRule string

const (
	ScoringLatest  ScoringRule = "latest"
	ScoringHighest ScoringRule = "highest"
)

// ParseScoringRule parses the query value; the empty string selects the
// default, latest.
func ParseScoringRule(s string) (ScoringRule, bool) {
	switch ScoringRule(s) {
	case "":
		return ScoringLatest, true
	case ScoringLatest, ScoringHighest:
		return ScoringRule(s), true
	}
	return "", false
}

type TieBreaker string

const (
	TieNone              TieBreaker = "none"
	TieBySubmissionTime  TieBreaker = "submission_time"
	TieBySubmissionCount TieBreaker = "submission_count"
	TieByUserID          TieBreaker = "user_id"
)

// ParseTieBreaker parses the query value; the empty string selects none.
func ParseTieBreaker(s string) (TieBreaker, bool) {
	switch TieBreaker(s) {
	case "":
		return TieNone, true
	case TieNone, TieBySubmissionTime, TieBySubmissionCount, TieByUserID:
		return TieBreaker(s), true
	}
	return "", false
}

type Rule struct {
	Scoring    ScoringRule
	TieBreaker TieBreaker
}

type UserRank struct {
	User   model.User `json:"user"`
	Rank   int        `json:"rank"`
	Scores []float64  `json:"scores"`
}

// entry is one user's aggregate while the list is being computed.
type entry struct {
	user    model.User
	scores  []float64
	total   float64
	count   int             // submissions in contest scope
	latest  model.Timestamp // latest created_time among selected jobs
	hasJobs bool
}

// Ranklist computes the rank list of a contest. For the implicit contest 0
// it spans all users and all configured problems; otherwise the contest's
// member and problem sets, in their declared order. Users with no activity
// still appear.
func Ranklist(contest *model.Contest, cfg *config.Config, jobs []model.Job, users []model.User, rule Rule) []UserRank {
	global := contest.ID == store.GlobalContestID

	var problems []*config.Problem
	if global {
		for i := range cfg.Problems {
			problems = append(problems, &cfg.Problems[i])
		}
	} else {
		for _, pid := range contest.ProblemIDs {
			if p, ok := cfg.ProblemByID(pid); ok {
				problems = append(problems, p)
			}
		}
	}

	inScope := func(job *model.Job) bool {
		return global || job.Submission.ContestID == contest.ID
	}

	// Fleet minimum runtimes per case of each dynamic_ranking problem,
	// taken over Accepted jobs in scope. -1 marks "no accepted job yet".
	minima := make(map[int][]int64)
	for _, p := range problems {
		if p.Type != config.TypeDynamicRanking {
			continue
		}
		mins := make([]int64, len(p.Cases))
		for i := range mins {
			mins[i] = -1
		}
		for i := range jobs {
			job := &jobs[i]
			if !inScope(job) || job.Submission.ProblemID != p.ID || job.Result != model.VerdictAccepted {
				continue
			}
			for ci := range p.Cases {
				// a snapshot from an older config may record fewer cases
				if ci+1 >= len(job.Cases) {
					break
				}
				t := job.Cases[ci+1].Time
				if mins[ci] < 0 || t < mins[ci] {
					mins[ci] = t
				}
			}
		}
		minima[p.ID] = mins
	}

	var members []model.User
	if global {
		members = users
	} else {
		byID := make(map[int]model.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		for _, uid := range contest.UserIDs {
			if u, ok := byID[uid]; ok {
				members = append(members, u)
			}
		}
	}

	entries := make([]*entry, 0, len(members))
	for _, u := range members {
		e := &entry{user: u, scores: make([]float64, 0, len(problems))}
		for _, p := range problems {
			sel := selectJob(jobs, u.ID, p.ID, contest, rule.Scoring)
			score := 0.0
			if sel != nil {
				score = sel.Score
				score += dynamicBonus(p, sel, minima[p.ID])
				if !e.hasJobs || sel.CreatedTime.After(e.latest.Time) {
					e.latest = sel.CreatedTime
				}
				e.hasJobs = true
			}
			e.scores = append(e.scores, score)
			e.total += score
		}
		for i := range jobs {
			if inScope(&jobs[i]) && jobs[i].Submission.UserID == u.ID {
				e.count++
			}
		}
		entries = append(entries, e)
	}

	// The declared rule decides ordering; user id keeps the sort total so
	// output is deterministic without affecting rank sharing.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if rule.ahead(a, b) {
			return true
		}
		if rule.ahead(b, a) {
			return false
		}
		return a.user.ID < b.user.ID
	})

	out := make([]UserRank, len(entries))
	for i, e := range entries {
		rank := i + 1
		if i > 0 && rule.ties(entries[i-1], e) {
			rank = out[i-1].Rank
		}
		out[i] = UserRank{User: e.user, Rank: rank, Scores: e.scores}
	}
	return out
}

// selectJob picks the user's effective job on a problem: the most recent
// one under latest (later job id wins exact ties), the best-scoring one
// under highest (earlier job id wins ties).
func selectJob(jobs []model.Job, userID, problemID int, contest *model.Contest, scoring ScoringRule) *model.Job {
	var sel *model.Job
	for i := range jobs {
		job := &jobs[i]
		if job.Submission.UserID != userID || job.Submission.ProblemID != problemID {
			continue
		}
		if contest.ID != store.GlobalContestID && job.Submission.ContestID != contest.ID {
			continue
		}
		if sel == nil {
			sel = job
			continue
		}
		switch scoring {
		case ScoringHighest:
			if job.Score > sel.Score {
				sel = job
			}
		default:
			if !job.CreatedTime.Before(sel.CreatedTime.Time) {
				sel = job
			}
		}
	}
	return sel
}

// dynamicBonus awards case_score * r * (min_t / u_t) per case when the
// selected job is Accepted overall. A zero runtime contributes nothing.
func dynamicBonus(p *config.Problem, sel *model.Job, mins []int64) float64 {
	if p.Type != config.TypeDynamicRanking || sel.Result != model.VerdictAccepted || mins == nil {
		return 0
	}
	r := p.Misc.DynamicRankingRatio
	bonus := 0.0
	for ci, cs := range p.Cases {
		if ci+1 >= len(sel.Cases) {
			break
		}
		ut := sel.Cases[ci+1].Time
		if ut > 0 && mins[ci] >= 0 {
			bonus += cs.Score * r * float64(mins[ci]) / float64(ut)
		}
	}
	return bonus
}

// ahead reports whether a strictly outranks b under the declared rule.
func (r Rule) ahead(a, b *entry) bool {
	if a.total != b.total {
		return a.total > b.total
	}
	switch r.TieBreaker {
	case TieBySubmissionTime:
		// Earlier "latest submission" wins; users with no submissions
		// compare as latest possible.
		if a.hasJobs != b.hasJobs {
			return a.hasJobs
		}
		if a.hasJobs && !a.latest.Equal(b.latest.Time) {
			return a.latest.Before(b.latest.Time)
		}
	case TieBySubmissionCount:
		if a.count != b.count {
			return a.count < b.count
		}
	case TieByUserID:
		return a.user.ID < b.user.ID
	}
	return false
}

// ties reports rank sharing: neither entry outranks the other.
func (r Rule) ties(a, b *entry) bool {
	return !r.ahead(a, b) && !r.ahead(b, a)
}
