// Package store holds the three process-wide registries (jobs, users,
// contests) behind one mutex each. Callers get deep copies; long-running
// work never happens under a registry lock (clone-out / commit-in).
//
// Lock ordering, when more than one registry is involved: jobs, then users,
// then contests. Locks are never held across a call that takes another one
// except in that order.
package store

import (
	"sync"
	"time"

	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/errs"
	"github.com/minioj/minioj/internal/model"

	"go.uber.org/zap"
)

type jobRegistry struct {
	mu   sync.Mutex
	list []*model.Job
}

type userRegistry struct {
	mu   sync.Mutex
	list []*model.User
}

type contestRegistry struct {
	mu   sync.Mutex
	list []*model.Contest
}

// RootUserName is the name seeded for user 0 on --flush-data.
const RootUserName = "root"

// GlobalContestID is the implicit contest every submission may target.
const GlobalContestID = 0

type Store struct {
	jobs     jobRegistry
	users    userRegistry
	contests contestRegistry
}

func New() *Store {
	return &Store{}
}

// Seed resets the registries to the flush-data state: user 0 ("root") and
// the implicit global contest spanning all configured problems.
func (s *Store) Seed(cfg *config.Config) {
	s.jobs.mu.Lock()
	s.jobs.list = nil
	s.jobs.mu.Unlock()

	s.users.mu.Lock()
	s.users.list = []*model.User{{ID: 0, Name: RootUserName}}
	s.users.mu.Unlock()

	s.contests.mu.Lock()
	s.contests.list = []*model.Contest{{
		ID:         GlobalContestID,
		Name:       "Global",
		From:       model.NewTimestamp(time.Unix(0, 0)),
		To:         model.NewTimestamp(time.Date(9999, 12, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)),
		ProblemIDs: cfg.ProblemIDs(),
		UserIDs:    []int{0},
	}}
	s.contests.mu.Unlock()

	zap.S().Info("registries seeded with root user and global contest")
}

// NewJob allocates the next dense job id and stores a queueing job shell.
// The returned copy is what the judging pipeline mutates outside the lock.
func (s *Store) NewJob(sub model.Submission) *model.Job {
	s.jobs.mu.Lock()
	defer s.jobs.mu.Unlock()

	now := model.Now()
	job := &model.Job{
		ID:          len(s.jobs.list),
		CreatedTime: now,
		UpdatedTime: now,
		Submission:  sub,
		State:       model.StateQueueing,
		Result:      model.VerdictWaiting,
		Cases:       []model.CaseResult{},
	}
	s.jobs.list = append(s.jobs.list, job)
	return job.Clone()
}

// Job returns a copy of the job with the given id.
func (s *Store) Job(id int) (*model.Job, error) {
	s.jobs.mu.Lock()
	defer s.jobs.mu.Unlock()

	if id < 0 || id >= len(s.jobs.list) {
		return nil, errs.NotFound("Job %d not found.", id)
	}
	return s.jobs.list[id].Clone(), nil
}

// Jobs returns a copy of the whole job registry in id order.
func (s *Store) Jobs() []model.Job {
	s.jobs.mu.Lock()
	defer s.jobs.mu.Unlock()

	out := make([]model.Job, 0, len(s.jobs.list))
	for _, job := range s.jobs.list {
		out = append(out, *job.Clone())
	}
	return out
}

// CommitJob writes a finished evaluation back into the registry. The stored
// created_time wins; it never changes after allocation.
func (s *Store) CommitJob(job *model.Job) error {
	s.jobs.mu.Lock()
	defer s.jobs.mu.Unlock()

	if job.ID < 0 || job.ID >= len(s.jobs.list) {
		return errs.Internal("Cannot commit unknown job %d.", job.ID)
	}
	committed := job.Clone()
	committed.CreatedTime = s.jobs.list[job.ID].CreatedTime
	s.jobs.list[job.ID] = committed
	return nil
}

// CountContestJobs counts jobs of a (user, problem) pair inside a contest,
// optionally excluding one job id (used by re-evaluation).
func (s *Store) CountContestJobs(contestID, userID, problemID, excludeJobID int) int {
	s.jobs.mu.Lock()
	defer s.jobs.mu.Unlock()

	count := 0
	for _, job := range s.jobs.list {
		if job.ID == excludeJobID {
			continue
		}
		sub := job.Submission
		if sub.ContestID == contestID && sub.UserID == userID && sub.ProblemID == problemID {
			count++
		}
	}
	return count
}

// PutUser creates a user (id nil) or renames an existing one. Names are
// unique case-sensitive across the registry. New users join the global
// contest so they show up on its ranklist.
func (s *Store) PutUser(id *int, name string) (*model.User, error) {
	s.users.mu.Lock()

	for _, u := range s.users.list {
		if u.Name == name && (id == nil || u.ID != *id) {
			s.users.mu.Unlock()
			return nil, errs.InvalidArgument("User name '%s' already exists.", name)
		}
	}

	if id != nil {
		if *id < 0 || *id >= len(s.users.list) {
			s.users.mu.Unlock()
			return nil, errs.NotFound("User %d not found.", *id)
		}
		s.users.list[*id].Name = name
		user := *s.users.list[*id]
		s.users.mu.Unlock()
		return &user, nil
	}

	user := &model.User{ID: len(s.users.list), Name: name}
	s.users.list = append(s.users.list, user)
	out := *user
	s.users.mu.Unlock()

	s.addUserToGlobalContest(user.ID)
	return &out, nil
}

func (s *Store) addUserToGlobalContest(userID int) {
	s.contests.mu.Lock()
	defer s.contests.mu.Unlock()

	for _, contest := range s.contests.list {
		if contest.ID == GlobalContestID {
			if !contest.HasUser(userID) {
				contest.UserIDs = append(contest.UserIDs, userID)
			}
			return
		}
	}
	zap.S().Warnf("global contest missing, user %d not enrolled", userID)
}

// User returns a copy of the user with the given id.
func (s *Store) User(id int) (*model.User, error) {
	s.users.mu.Lock()
	defer s.users.mu.Unlock()

	if id < 0 || id >= len(s.users.list) {
		return nil, errs.NotFound("User %d not found.", id)
	}
	user := *s.users.list[id]
	return &user, nil
}

// Users returns a copy of the user registry in id order.
func (s *Store) Users() []model.User {
	s.users.mu.Lock()
	defer s.users.mu.Unlock()

	out := make([]model.User, 0, len(s.users.list))
	for _, u := range s.users.list {
		out = append(out, *u)
	}
	return out
}

// PutContest appends a new contest (hasID false) or replaces an existing
// record. Referenced users must exist in the registry and referenced
// problems in the config.
func (s *Store) PutContest(in model.Contest, hasID bool, cfg *config.Config) (*model.Contest, error) {
	s.users.mu.Lock()
	userCount := len(s.users.list)
	s.users.mu.Unlock()

	for _, uid := range in.UserIDs {
		if uid < 0 || uid >= userCount {
			return nil, errs.NotFound("User %d not found.", uid)
		}
	}
	for _, pid := range in.ProblemIDs {
		if _, ok := cfg.ProblemByID(pid); !ok {
			return nil, errs.NotFound("Problem %d not found.", pid)
		}
	}

	s.contests.mu.Lock()
	defer s.contests.mu.Unlock()

	if hasID {
		if in.ID < 0 || in.ID >= len(s.contests.list) {
			return nil, errs.NotFound("Contest %d not found.", in.ID)
		}
		s.contests.list[in.ID] = in.Clone()
		return in.Clone(), nil
	}

	in.ID = len(s.contests.list)
	s.contests.list = append(s.contests.list, in.Clone())
	return in.Clone(), nil
}

// Contest returns a copy of the contest with the given id.
func (s *Store) Contest(id int) (*model.Contest, error) {
	s.contests.mu.Lock()
	defer s.contests.mu.Unlock()

	if id < 0 || id >= len(s.contests.list) {
		return nil, errs.NotFound("Contest %d not found.", id)
	}
	return s.contests.list[id].Clone(), nil
}

// Contests returns a copy of the contest registry in id order, including
// the implicit global contest.
func (s *Store) Contests() []model.Contest {
	s.contests.mu.Lock()
	defer s.contests.mu.Unlock()

	out := make([]model.Contest, 0, len(s.contests.list))
	for _, c := range s.contests.list {
		out = append(out, *c.Clone())
	}
	return out
}
