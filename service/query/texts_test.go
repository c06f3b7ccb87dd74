package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/lakeflow/service/meta"
)

func TestTexts_Lookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "letter_partition.sql"), []byte("SELECT * FROM t WHERE letter = '{first_letter}'\n"), 0644))
	texts := NewTexts(meta.New(afs.New(), ""), dir)
	texts.Register("inline", "SELECT 1")
	testCases := []struct {
		name     string
		query    string
		expect   string
		hasError bool
	}{
		{name: "registered", query: "inline", expect: "SELECT 1"},
		{name: "file", query: "letter_partition", expect: "SELECT * FROM t WHERE letter = '{first_letter}'"},
		{name: "missing", query: "missing", hasError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			text, err := texts.Lookup(context.Background(), tc.query)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, text)
		})
	}
}

func TestResultSet(t *testing.T) {
	rs := &ResultSet{Rows: [][]string{{"source_count", "target_count"}, {"100", "99"}}}
	assert.Equal(t, []string{"source_count", "target_count"}, rs.Header())
	assert.Equal(t, [][]string{{"100", "99"}}, rs.Data())
	assert.Equal(t, [][]string{}, (&ResultSet{}).Data())
}
