package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType_UnmarshalText(t *testing.T) {
	t.Parallel()

	var jt JobType
	require.NoError(t, jt.UnmarshalText([]byte(" Posts ")))
	assert.Equal(t, JobTypePosts, jt)

	err := jt.UnmarshalText([]byte("avatar"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JobType")
}

func TestCreateJobRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     CreateJobRequest
		wantErr string
	}{
		{
			name: "valid posts job",
			req:  CreateJobRequest{Type: JobTypePosts, ProfileID: 7},
		},
		{
			name:    "unknown type",
			req:     CreateJobRequest{Type: JobType("index"), ProfileID: 7},
			wantErr: "invalid job type",
		},
		{
			name:    "missing profile",
			req:     CreateJobRequest{Type: JobTypePosts},
			wantErr: "profile id must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerEventStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []WorkerEventStatus{
		WorkerEventQueued, WorkerEventStarted, WorkerEventFinished,
		WorkerEventProgress, WorkerEventFailed,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, WorkerEventStatus("paused").Valid())
}
