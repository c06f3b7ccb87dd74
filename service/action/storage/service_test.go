package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/lakeflow/service/storage"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	cleaner := storage.NewCleaner(fs, storage.Config{BaseURL: "mem://localhost/"}, nil)
	for _, key := range []string{"boundary_changes/review-1/a.csv", "boundary_changes/review-1/b.csv"} {
		require.NoError(t, fs.Upload(ctx, cleaner.URL("action-bucket", key), file.DefaultFileOsMode, strings.NewReader("x")))
	}
	srv := New(cleaner)
	testCases := []struct {
		name     string
		method   string
		input    *PrefixInput
		output   interface{}
		expect   interface{}
		hasError bool
	}{
		{
			name:   "list",
			method: "list",
			input:  &PrefixInput{Bucket: "action-bucket", Prefix: "boundary_changes"},
			output: &ListOutput{},
			expect: 2,
		},
		{
			name:   "cleanup",
			method: "cleanup",
			input:  &PrefixInput{Bucket: "action-bucket", Prefix: "boundary_changes"},
			output: &CleanupOutput{},
			expect: 2,
		},
		{
			name:   "cleanup again",
			method: "cleanup",
			input:  &PrefixInput{Bucket: "action-bucket", Prefix: "boundary_changes"},
			output: &CleanupOutput{},
			expect: 0,
		},
		{name: "bucket required", method: "cleanup", input: &PrefixInput{}, output: &CleanupOutput{}, hasError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			method, err := srv.Method(tc.method)
			require.NoError(t, err)
			err = method(ctx, tc.input, tc.output)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			switch actual := tc.output.(type) {
			case *ListOutput:
				assert.Equal(t, tc.expect, actual.Count)
			case *CleanupOutput:
				assert.Equal(t, tc.expect, actual.Deleted)
				assert.Equal(t, "mem://localhost/action-bucket/boundary_changes", actual.URL)
			}
		})
	}
	_, err := srv.Method("upload")
	assert.Error(t, err)
}
