// Package specialist implements the per-job-type subsystems: validation
// of job metadata and ownership of that type's job table. Batch-script
// generation lives in package batchscript. Variants register in a closed
// factory keyed by job type.
package specialist

import (
	"sort"
	"sync"

	"github.com/AmzelLab/fiesta3/internal/common"
)

// Specialist owns every JobRecord of one job type.
type Specialist interface {
	// AddJob validates job's type-specific required fields against the
	// raw envelope map (so zero-valued-but-present fields like
	// sectionNum==0 validate correctly), rejects duplicate names, and
	// stores the record.
	AddJob(job common.JobRecord, raw map[string]any) bool

	// Jobs returns a point-in-time snapshot of managed job records.
	Jobs() []common.JobRecord

	// JobStats returns a point-in-time snapshot of managed job stats.
	JobStats() []common.JobStat

	// Job returns the named job record for in-place mutation by the
	// Supervisor, and whether it exists.
	Job(name string) (*common.JobRecord, bool)

	// SetJobStat replaces the cached JobStat for name.
	SetJobStat(name string, stat common.JobStat)
}

// base implements the bookkeeping shared by every concrete Specialist:
// duplicate-name rejection, position-index assignment (kept separate from
// Name, per spec.md §9), and snapshot accessors.
type base struct {
	mu       sync.RWMutex
	jobs     map[string]*common.JobRecord
	jobStats map[string]common.JobStat
	nextIdx  int
}

func newBase() base {
	return base{
		jobs:     make(map[string]*common.JobRecord),
		jobStats: make(map[string]common.JobStat),
	}
}

func (b *base) checkDuplicate(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.jobs[name]
	return !exists
}

func (b *base) store(job common.JobRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job.SetIdx(b.nextIdx)
	b.nextIdx++
	b.jobs[job.Name] = &job
}

func (b *base) Jobs() []common.JobRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]common.JobRecord, 0, len(b.jobs))
	for _, j := range b.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Idx() < out[k].Idx() })
	return out
}

func (b *base) JobStats() []common.JobStat {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]common.JobStat, 0, len(b.jobStats))
	for _, s := range b.jobStats {
		out = append(out, s)
	}
	return out
}

func (b *base) Job(name string) (*common.JobRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	j, ok := b.jobs[name]
	return j, ok
}

func (b *base) SetJobStat(name string, stat common.JobStat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobStats[name] = stat
}
