package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampWireFormat(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 17, 9, 30, 0, int(250*time.Millisecond), time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-17T09:30:00.250Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(ts.Time))
}

func TestTimestampRejectsNonString(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`12345`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestParseVerdict(t *testing.T) {
	v, ok := ParseVerdict("Wrong Answer")
	require.True(t, ok)
	assert.Equal(t, VerdictWrongAnswer, v)

	_, ok = ParseVerdict("wrong answer")
	assert.False(t, ok)

	_, ok = ParseVerdict("")
	assert.False(t, ok)
}

func TestParseJobState(t *testing.T) {
	s, ok := ParseJobState("Finished")
	require.True(t, ok)
	assert.Equal(t, StateFinished, s)

	_, ok = ParseJobState("Done")
	assert.False(t, ok)
}

func TestJobCloneIsDeep(t *testing.T) {
	job := &Job{
		ID:    3,
		Cases: []CaseResult{{ID: 0, Result: VerdictCompilationSuccess}, {ID: 1, Result: VerdictAccepted}},
	}
	clone := job.Clone()
	clone.Cases[1].Result = VerdictSkipped

	assert.Equal(t, VerdictAccepted, job.Cases[1].Result)
}

func TestContestMembership(t *testing.T) {
	c := &Contest{UserIDs: []int{0, 2}, ProblemIDs: []int{5}}
	assert.True(t, c.HasUser(2))
	assert.False(t, c.HasUser(1))
	assert.True(t, c.HasProblem(5))
	assert.False(t, c.HasProblem(0))
}
