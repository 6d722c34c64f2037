package firestore

import (
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	err   error
	asked bool
}

func (j *fakeJob) Results() (*firestore.WriteResult, error) {
	j.asked = true
	if j.err != nil {
		return nil, j.err
	}
	return &firestore.WriteResult{}, nil
}

func TestFirstJobErrorReportsFailedWrite(t *testing.T) {
	denied := errors.New("permission denied")
	jobs := []*fakeJob{{}, {err: denied}, {err: errors.New("contention")}}

	err := firstJobError([]bulkJob{jobs[0], jobs[1], jobs[2]})
	require.ErrorIs(t, err, denied)
	for _, j := range jobs {
		assert.True(t, j.asked, "every job is awaited")
	}
}

func TestFirstJobErrorAllSucceeded(t *testing.T) {
	assert.NoError(t, firstJobError([]bulkJob{&fakeJob{}, &fakeJob{}}))
	assert.NoError(t, firstJobError(nil))
}
