package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
)

// flakyFs fails the Exists call with the supplied ordinal
type flakyFs struct {
	afs.Service
	failOn int
	calls  int
}

func (f *flakyFs) Exists(ctx context.Context, URL string, options ...storage.Option) (bool, error) {
	f.calls++
	if f.calls == f.failOn {
		return false, errors.New("connection reset")
	}
	return f.Service.Exists(ctx, URL, options...)
}

func TestCleaner_DeleteAllUnderPrefix(t *testing.T) {
	testCases := []struct {
		name      string
		bucket    string
		objects   []string
		prefix    string
		batchSize int
		expect    int
		remaining int
	}{
		{
			name:      "multiple batches",
			bucket:    "dc-data-baker-clean",
			objects:   seq("addressbase/partitioned/first_letter=%d/part.parquet", 7),
			prefix:    "addressbase/partitioned",
			batchSize: 3,
			expect:    7,
		},
		{
			name:      "sibling prefix untouched",
			bucket:    "dc-data-baker-other",
			objects:   append(seq("current_elections/file%d.csv", 2), "current_elections_parquet/a.parquet"),
			prefix:    "current_elections/",
			expect:    2,
			remaining: 1,
		},
		{name: "missing prefix", bucket: "dc-data-baker-empty", prefix: "nothing/here", expect: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fs := afs.New()
			cleaner := NewCleaner(fs, Config{BaseURL: "mem://localhost/", BatchSize: tc.batchSize}, nil)
			for _, object := range tc.objects {
				require.NoError(t, fs.Upload(ctx, cleaner.URL(tc.bucket, object), file.DefaultFileOsMode, strings.NewReader("x")))
			}
			deleted, err := cleaner.DeleteAllUnderPrefix(ctx, tc.bucket, tc.prefix)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, deleted)
			left, err := cleaner.Objects(ctx, tc.bucket, tc.prefix)
			require.NoError(t, err)
			assert.Empty(t, left)
			all, err := cleaner.Objects(ctx, tc.bucket, "")
			require.NoError(t, err)
			assert.Len(t, all, tc.remaining)

			again, err := cleaner.DeleteAllUnderPrefix(ctx, tc.bucket, tc.prefix)
			require.NoError(t, err)
			assert.Equal(t, 0, again)
		})
	}
}

func TestCleaner_DeleteAllUnderPrefixCheckFailed(t *testing.T) {
	ctx := context.Background()
	fs := &flakyFs{Service: afs.New(), failOn: 3}
	cleaner := NewCleaner(fs, Config{BaseURL: "mem://localhost/"}, nil)
	for _, object := range seq("boundary_changes/file%d.csv", 2) {
		require.NoError(t, fs.Upload(ctx, cleaner.URL("dc-data-baker-flaky", object), file.DefaultFileOsMode, strings.NewReader("x")))
	}
	deleted, err := cleaner.DeleteAllUnderPrefix(ctx, "dc-data-baker-flaky", "boundary_changes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check mem://localhost/dc-data-baker-flaky/boundary_changes")
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 3, fs.calls)
}

func TestCleaner_URL(t *testing.T) {
	testCases := []struct {
		name   string
		base   string
		bucket string
		prefix string
		expect string
	}{
		{name: "s3", base: "s3://", bucket: "b", prefix: "p/q/", expect: "s3://b/p/q"},
		{name: "mem", base: "mem://localhost/", bucket: "b", prefix: "p", expect: "mem://localhost/b/p"},
		{name: "bucket root", base: "s3://", bucket: "b", expect: "s3://b"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleaner := NewCleaner(afs.New(), Config{BaseURL: tc.base}, nil)
			assert.Equal(t, tc.expect, cleaner.URL(tc.bucket, tc.prefix))
		})
	}
}

func seq(format string, n int) []string {
	var result []string
	for i := 0; i < n; i++ {
		result = append(result, fmt.Sprintf(format, i))
	}
	return result
}
