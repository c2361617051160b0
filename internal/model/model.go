package model

// Verdict is the judgement on a single case or a whole job. The string
// values are the wire names; the special-judge protocol parses them back,
// so they must stay stable.
type Verdict string

const (
	VerdictWaiting             Verdict = "Waiting"
	VerdictRunning             Verdict = "Running"
	VerdictAccepted            Verdict = "Accepted"
	VerdictCompilationError    Verdict = "Compilation Error"
	VerdictCompilationSuccess  Verdict = "Compilation Success"
	VerdictWrongAnswer         Verdict = "Wrong Answer"
	VerdictRuntimeError        Verdict = "Runtime Error"
	VerdictTimeLimitExceeded   Verdict = "Time Limit Exceeded"
	VerdictMemoryLimitExceeded Verdict = "Memory Limit Exceeded"
	VerdictSystemError         Verdict = "System Error"
	VerdictSPJError            Verdict = "SPJ Error"
	VerdictSkipped             Verdict = "Skipped"
)

var verdicts = map[string]Verdict{
	string(VerdictWaiting):             VerdictWaiting,
	string(VerdictRunning):             VerdictRunning,
	string(VerdictAccepted):            VerdictAccepted,
	string(VerdictCompilationError):    VerdictCompilationError,
	string(VerdictCompilationSuccess):  VerdictCompilationSuccess,
	string(VerdictWrongAnswer):         VerdictWrongAnswer,
	string(VerdictRuntimeError):        VerdictRuntimeError,
	string(VerdictTimeLimitExceeded):   VerdictTimeLimitExceeded,
	string(VerdictMemoryLimitExceeded): VerdictMemoryLimitExceeded,
	string(VerdictSystemError):         VerdictSystemError,
	string(VerdictSPJError):            VerdictSPJError,
	string(VerdictSkipped):             VerdictSkipped,
}

// ParseVerdict maps a wire name back to a Verdict.
func ParseVerdict(s string) (Verdict, bool) {
	v, ok := verdicts[s]
	return v, ok
}

// JobState is the lifecycle state of a job.
type JobState string

const (
	StateQueueing JobState = "Queueing"
	StateRunning  JobState = "Running"
	StateFinished JobState = "Finished"
	StateCanceled JobState = "Canceled"
)

// ParseJobState maps a wire name back to a JobState.
func ParseJobState(s string) (JobState, bool) {
	switch JobState(s) {
	case StateQueueing, StateRunning, StateFinished, StateCanceled:
		return JobState(s), true
	}
	return "", false
}

// Submission is the body of POST /jobs. ContestID 0 means the implicit
// global contest.
type Submission struct {
	SourceCode string `json:"source_code"`
	Language   string `json:"language"`
	UserID     int    `json:"user_id"`
	ContestID  int    `json:"contest_id"`
	ProblemID  int    `json:"problem_id"`
}

// CaseResult holds the outcome of one case. Cases are 1-indexed; index 0 is
// the compile step. Time is wall-clock microseconds. Memory is advisory and
// always 0, the runtime does not measure it.
type CaseResult struct {
	ID     int     `json:"id"`
	Result Verdict `json:"result"`
	Time   int64   `json:"time"`
	Memory int64   `json:"memory"`
	Info   string  `json:"info"`
}

type Job struct {
	ID          int          `json:"id"`
	CreatedTime Timestamp    `json:"created_time"`
	UpdatedTime Timestamp    `json:"updated_time"`
	Submission  Submission   `json:"submission"`
	State       JobState     `json:"state"`
	Result      Verdict      `json:"result"`
	Score       float64      `json:"score"`
	Cases       []CaseResult `json:"cases"`
}

// Clone returns a deep copy so callers can work outside the registry lock.
func (j *Job) Clone() *Job {
	out := *j
	out.Cases = make([]CaseResult, len(j.Cases))
	copy(out.Cases, j.Cases)
	return &out
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Contest struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	From            Timestamp `json:"from"`
	To              Timestamp `json:"to"`
	ProblemIDs      []int     `json:"problem_ids"`
	UserIDs         []int     `json:"user_ids"`
	SubmissionLimit int       `json:"submission_limit"`
}

func (c *Contest) Clone() *Contest {
	out := *c
	out.ProblemIDs = append([]int(nil), c.ProblemIDs...)
	out.UserIDs = append([]int(nil), c.UserIDs...)
	return &out
}

func (c *Contest) HasUser(id int) bool {
	for _, uid := range c.UserIDs {
		if uid == id {
			return true
		}
	}
	return false
}

func (c *Contest) HasProblem(id int) bool {
	for _, pid := range c.ProblemIDs {
		if pid == id {
			return true
		}
	}
	return false
}
