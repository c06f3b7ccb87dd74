package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type definition struct {
	Name     string                 `yaml:"name" json:"name"`
	Bucket   string                 `yaml:"bucket" json:"bucket"`
	Seed     map[string]interface{} `yaml:"seed" json:"seed"`
	Database string                 `yaml:"database" json:"database"`
}

func TestService_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "property.yaml"), []byte("name: property\nbucket: ${env.LAKEFLOW_TEST_BUCKET}\nseed:\n  limit: 5\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boundaries.json"), []byte(`{"name":"boundaries","database":"${env.LAKEFLOW_TEST_DB}"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	t.Setenv("LAKEFLOW_TEST_BUCKET", "dc-data-baker-dev")
	t.Setenv("LAKEFLOW_TEST_DB", "dc_data_baker")

	srv := New(afs.New(), dir)
	testCases := []struct {
		name   string
		URL    string
		expect *definition
	}{
		{name: "yaml", URL: "property.yaml", expect: &definition{Name: "property", Bucket: "dc-data-baker-dev", Seed: map[string]interface{}{"limit": 5}}},
		{name: "json", URL: "boundaries.json", expect: &definition{Name: "boundaries", Database: "dc_data_baker"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := &definition{}
			require.NoError(t, srv.Load(context.Background(), tc.URL, actual))
			assert.Equal(t, tc.expect, actual)
		})
	}

	URLs, err := srv.List(context.Background(), "", ".yaml", ".json")
	require.NoError(t, err)
	assert.Len(t, URLs, 2)
	assert.True(t, srv.Exists(context.Background(), "notes.txt"))
	assert.Error(t, srv.Load(context.Background(), "missing.yaml", &definition{}))
}
