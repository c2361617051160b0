package api

import (
	"strconv"

	"github.com/minioj/minioj/internal/errs"
	"github.com/minioj/minioj/internal/model"
	"github.com/minioj/minioj/internal/store"
	"github.com/minioj/minioj/internal/util"

	"github.com/gin-gonic/gin"
)

// postJob creates a job for the submitted source and judges it
// synchronously; the response is the finalized job.
func (h *Handler) postJob(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		util.Error(c, errs.InvalidArgument("Invalid request body: %v.", err))
		return
	}

	job, err := h.judger.Submit(sub)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, job)
}

func (h *Handler) getJobs(c *gin.Context) {
	filter, err := parseJobFilter(c)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, h.store.FilterJobs(filter))
}

func (h *Handler) getJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		util.Error(c, err)
		return
	}
	job, err := h.store.Job(id)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, job)
}

// putJob re-runs the stored submission of an existing job.
func (h *Handler) putJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		util.Error(c, err)
		return
	}
	job, err := h.judger.Rejudge(id)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, job)
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errs.NotFound("Invalid id %q.", c.Param("id"))
	}
	return id, nil
}

func parseJobFilter(c *gin.Context) (store.JobFilter, error) {
	var f store.JobFilter

	for _, q := range []struct {
		name string
		dst  **int
	}{
		{"user_id", &f.UserID},
		{"contest_id", &f.ContestID},
		{"problem_id", &f.ProblemID},
	} {
		if s, ok := c.GetQuery(q.name); ok {
			v, err := strconv.Atoi(s)
			if err != nil {
				return f, errs.InvalidArgument("Invalid %s %q.", q.name, s)
			}
			*q.dst = &v
		}
	}

	if s, ok := c.GetQuery("user_name"); ok {
		f.UserName = &s
	}
	if s, ok := c.GetQuery("language"); ok {
		f.Language = &s
	}
	if s, ok := c.GetQuery("from"); ok {
		t, err := model.ParseTimestamp(s)
		if err != nil {
			return f, errs.InvalidArgument("Invalid from time %q.", s)
		}
		f.From = &t
	}
	if s, ok := c.GetQuery("to"); ok {
		t, err := model.ParseTimestamp(s)
		if err != nil {
			return f, errs.InvalidArgument("Invalid to time %q.", s)
		}
		f.To = &t
	}
	if s, ok := c.GetQuery("state"); ok {
		state, ok := model.ParseJobState(s)
		if !ok {
			return f, errs.InvalidArgument("Invalid state %q.", s)
		}
		f.State = &state
	}
	if s, ok := c.GetQuery("result"); ok {
		result, ok := model.ParseVerdict(s)
		if !ok {
			return f, errs.InvalidArgument("Invalid result %q.", s)
		}
		f.Result = &result
	}
	return f, nil
}
