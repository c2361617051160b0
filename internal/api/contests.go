package api

import (
	"github.com/minioj/minioj/internal/errs"
	"github.com/minioj/minioj/internal/model"
	"github.com/minioj/minioj/internal/rank"
	"github.com/minioj/minioj/internal/store"
	"github.com/minioj/minioj/internal/util"

	"github.com/gin-gonic/gin"
)

type contestRequest struct {
	ID              *int            `json:"id"`
	Name            string          `json:"name"`
	From            model.Timestamp `json:"from"`
	To              model.Timestamp `json:"to"`
	ProblemIDs      []int           `json:"problem_ids"`
	UserIDs         []int           `json:"user_ids"`
	SubmissionLimit int             `json:"submission_limit"`
}

func (h *Handler) postContest(c *gin.Context) {
	var req contestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, errs.InvalidArgument("Invalid request body: %v.", err))
		return
	}

	contest := model.Contest{
		Name:            req.Name,
		From:            req.From,
		To:              req.To,
		ProblemIDs:      req.ProblemIDs,
		UserIDs:         req.UserIDs,
		SubmissionLimit: req.SubmissionLimit,
	}
	if req.ID != nil {
		contest.ID = *req.ID
	}

	saved, err := h.store.PutContest(contest, req.ID != nil, h.cfg)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, saved)
}

// getContests lists every contest except the implicit global one.
func (h *Handler) getContests(c *gin.Context) {
	contests := h.store.Contests()
	out := make([]model.Contest, 0, len(contests))
	for _, contest := range contests {
		if contest.ID == store.GlobalContestID {
			continue
		}
		out = append(out, contest)
	}
	util.OK(c, out)
}

func (h *Handler) getContest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		util.Error(c, err)
		return
	}
	contest, err := h.store.Contest(id)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, contest)
}

func (h *Handler) getRanklist(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		util.Error(c, err)
		return
	}
	contest, err := h.store.Contest(id)
	if err != nil {
		util.Error(c, err)
		return
	}

	scoring, ok := rank.ParseScoringRule(c.Query("scoring_rule"))
	if !ok {
		util.Error(c, errs.InvalidArgument("Invalid scoring_rule %q.", c.Query("scoring_rule")))
		return
	}
	tieBreaker, ok := rank.ParseTieBreaker(c.Query("tie_breaker"))
	if !ok {
		util.Error(c, errs.InvalidArgument("Invalid tie_breaker %q.", c.Query("tie_breaker")))
		return
	}

	list := rank.Ranklist(contest, h.cfg, h.store.Jobs(), h.store.Users(), rank.Rule{
		Scoring:    scoring,
		TieBreaker: tieBreaker,
	})
	util.OK(c, list)
}
