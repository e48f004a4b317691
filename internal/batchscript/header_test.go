package batchscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmzelLab/fiesta3/internal/common"
)

func TestPersistExclusionListIsIdempotent(t *testing.T) {
	a := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	job := &common.JobRecord{Name: "md01", ExclusionPath: filepath.Join(dir, "md01_exclusion")}

	require.NoError(AddExclusionNode(job, "node02"))
	require.NoError(AddExclusionNode(job, "node01"))
	require.NoError(AddExclusionNode(job, "node02"))

	contents, err := os.ReadFile(job.ExclusionPath)
	require.NoError(err)
	a.Equal("node01\nnode02\n", string(contents))

	// A second identical mutation must produce byte-identical output.
	require.NoError(AddExclusionNode(job, "node01"))
	again, err := os.ReadFile(job.ExclusionPath)
	require.NoError(err)
	a.Equal(contents, again)
}

func TestLoadExclusionListReadsPersistedFile(t *testing.T) {
	a := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "excl")
	require.NoError(os.WriteFile(path, []byte("nodeA\nnodeB\n"), 0o644))

	job := &common.JobRecord{Name: "md01", ExclusionPath: path}
	require.NoError(LoadExclusionList(job))

	a.Equal([]string{"nodeA", "nodeB"}, job.ExclusionList)
}

func TestHeaderOmitsGPUAndExcludeDirectivesByDefault(t *testing.T) {
	a := assert.New(t)
	require := require.New(t)

	job := baseJob()
	out, err := Header(job)
	require.NoError(err)

	a.NotContains(out, "--gres=gpu")
	a.NotContains(out, "--exclude=")
}
