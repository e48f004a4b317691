package manager

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope(names ...string) []byte {
	data := make([]map[string]any, 0, len(names))
	for _, n := range names {
		data = append(data, map[string]any{
			"name":         n,
			"type":         "Test",
			"remote":       "cluster1",
			"batchType":    "slurm",
			"userId":       "alice",
			"directory":    "/scratch/" + n,
			"timeLimit":    "24:00:00",
			"numOfNodes":   1,
			"numOfProcs":   4,
			"numOfThrs":    1,
			"partition":    "standard",
		})
	}
	env := map[string]any{"title": "batch1", "data": data}
	out, _ := json.Marshal(env)
	return out
}

func TestAddJobsAcceptsValidEnvelope(t *testing.T) {
	a := assert.New(t)

	m := New(nil)
	m.TakeOffice(1)
	defer m.Pool().Close()

	report := m.AddJobs(validEnvelope("job1", "job2"))

	a.Contains(report, "ACCEPTED: job1 job2")
	a.Contains(report, "DECLINED: \n")
}

func TestAddJobsDeclinesNameOverEightChars(t *testing.T) {
	a := assert.New(t)

	m := New(nil)
	m.TakeOffice(1)
	defer m.Pool().Close()

	report := m.AddJobs(validEnvelope("toolongname"))

	a.Contains(report, "DECLINED: toolongname")
	a.NotContains(report, "ACCEPTED: toolongname")
}

func TestAddJobsRejectsMissingHeaderField(t *testing.T) {
	a := assert.New(t)

	m := New(nil)
	m.TakeOffice(1)
	defer m.Pool().Close()

	out, _ := json.Marshal(map[string]any{"data": []any{}})
	report := m.AddJobs(out)

	a.Contains(report, "invalid header")
}

func TestAddJobsRejectsDuplicateNamesAcrossCalls(t *testing.T) {
	a := assert.New(t)

	m := New(nil)
	m.TakeOffice(1)
	defer m.Pool().Close()

	first := m.AddJobs(validEnvelope("job1"))
	second := m.AddJobs(validEnvelope("job1"))

	a.Contains(first, "ACCEPTED: job1")
	a.Contains(second, "DECLINED: job1")
}

func TestAddJobsResetsLifecycleFieldsOnIngest(t *testing.T) {
	a := assert.New(t)

	m := New(nil)
	m.TakeOffice(1)
	defer m.Pool().Close()

	data := []map[string]any{{
		"name": "job1", "type": "Test", "remote": "cluster1", "batchType": "slurm",
		"userId": "alice", "directory": "/scratch/job1", "timeLimit": "24:00:00",
		"numOfNodes": 1, "numOfProcs": 4, "numOfThrs": 1, "partition": "standard",
		"jobId": "99", "expCompletion": 123, "makeup": true,
	}}
	env, _ := json.Marshal(map[string]any{"title": "batch1", "data": data})
	m.AddJobs(env)

	specialists := m.Specialists()
	require.Len(t, specialists, 1)
	jobs := specialists[0].Jobs()
	require.Len(t, jobs, 1)

	a.Empty(jobs[0].JobID)
	a.Zero(jobs[0].ExpCompletion)
	a.False(jobs[0].Makeup)
}

func TestSnapshotWritesSortedEnvelope(t *testing.T) {
	a := assert.New(t)
	require := require.New(t)

	m := New(nil)
	m.TakeOffice(1)
	defer m.Pool().Close()

	m.AddJobs(validEnvelope("zzz", "aaa"))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	_, err := m.Snapshot(path)
	require.NoError(err)

	raw, err := os.ReadFile(path)
	require.NoError(err)

	var env struct {
		Title string `json:"title"`
		Data  []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(json.Unmarshal(raw, &env))
	require.Len(env.Data, 2)
	a.Equal("aaa", env.Data[0].Name)
	a.Equal("zzz", env.Data[1].Name)
}
