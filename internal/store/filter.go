package store

import (
	"github.com/minioj/minioj/internal/model"
)

// JobFilter lists jobs matching the conjunction of its set fields. Nil
// fields impose no constraint. From and To are strictly exclusive bounds on
// created_time.
type JobFilter struct {
	UserID    *int
	UserName  *string
	ContestID *int
	ProblemID *int
	Language  *string
	From      *model.Timestamp
	To        *model.Timestamp
	State     *model.JobState
	Result    *model.Verdict
}

// FilterJobs evaluates the filter against a consistent snapshot of the job
// and user registries.
func (s *Store) FilterJobs(f JobFilter) []model.Job {
	jobs := s.Jobs()

	userNames := make(map[int]string)
	for _, u := range s.Users() {
		userNames[u.ID] = u.Name
	}

	out := make([]model.Job, 0)
	for i := range jobs {
		if f.matches(&jobs[i], userNames) {
			out = append(out, jobs[i])
		}
	}
	return out
}

func (f *JobFilter) matches(job *model.Job, userNames map[int]string) bool {
	sub := job.Submission
	if f.UserID != nil && sub.UserID != *f.UserID {
		return false
	}
	if f.UserName != nil {
		name, ok := userNames[sub.UserID]
		if !ok || name != *f.UserName {
			return false
		}
	}
	if f.ContestID != nil && sub.ContestID != *f.ContestID {
		return false
	}
	if f.ProblemID != nil && sub.ProblemID != *f.ProblemID {
		return false
	}
	if f.Language != nil && sub.Language != *f.Language {
		return false
	}
	if f.From != nil && !job.CreatedTime.After(f.From.Time) {
		return false
	}
	if f.To != nil && !job.CreatedTime.Before(f.To.Time) {
		return false
	}
	if f.State != nil && job.State != *f.State {
		return false
	}
	if f.Result != nil && job.Result != *f.Result {
		return false
	}
	return true
}
