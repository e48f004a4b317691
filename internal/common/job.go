package common

import "sort"

// JobRecord is the persistent, Specialist-owned description of one managed
// simulation job. Name is unique within a Manager and must not exceed 8
// characters once accepted (spec invariant carried over from the original
// job table).
type JobRecord struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Remote   string `json:"remote"`
	BatchType string `json:"batchType"`
	UserID   string `json:"userId"`
	Directory string `json:"directory"`
	TimeLimit string `json:"timeLimit"`
	NumNodes  int    `json:"numOfNodes"`
	NumProcs  int    `json:"numOfProcs"`
	NumThrs   int    `json:"numOfThrs"`
	Partition string `json:"partition"`
	NumGPUs   int    `json:"numOfGPUs,omitempty"`

	// Gromacs-specific fields. Present only for type == "Gromacs".
	NameBase     string `json:"nameBase,omitempty"`
	SectionNum   int    `json:"sectionNum"`
	MDP          string `json:"mdp,omitempty"`
	Continuation bool   `json:"continuation"`
	Index        string `json:"index,omitempty"`
	BinaryPath   string `json:"binaryPath,omitempty"`

	// Mutated by the Supervisor across poll cycles.
	JobID         string   `json:"jobId"`
	ExpCompletion int64    `json:"expCompletion"` // seconds; MaxExpCompletion means "unknown/pending"
	Makeup        bool     `json:"makeup"`

	ExclusionPath string   `json:"exclusion,omitempty"`
	ExclusionList []string `json:"exclusionList,omitempty"`

	// idx is the Specialist's position index for this job, kept separate
	// from Name so a lookup-table rebuild never corrupts the job's own
	// identity (see spec.md §9's "do not preserve" note).
	idx int
}

// MaxExpCompletion is the "pending forever" sentinel used when a job's
// completion time cannot be computed (unknown remote time, unknown log, or
// a job that is not yet running).
const MaxExpCompletion int64 = 1<<63 - 1

// Idx returns the Specialist-assigned position index for this job.
func (j *JobRecord) Idx() int { return j.idx }

// SetIdx sets the Specialist-assigned position index.
func (j *JobRecord) SetIdx(i int) { j.idx = i }

// AddExclusionNode lazily initializes the exclusion path/list and appends
// node to the in-memory list, keeping it deduplicated and sorted after
// every mutation — calling this twice with the same node is idempotent.
// Persisting the list to ExclusionPath is the caller's responsibility
// (see batchscript.PersistExclusionList), so in-memory state observes the
// invariant immediately even before the next flush to disk.
func (j *JobRecord) AddExclusionNode(node string) {
	if j.ExclusionPath == "" {
		j.ExclusionPath = j.Name + "_exclusion"
	}
	for _, existing := range j.ExclusionList {
		if existing == node {
			sort.Strings(j.ExclusionList)
			return
		}
	}
	j.ExclusionList = append(j.ExclusionList, node)
	sort.Strings(j.ExclusionList)
}

// JobStat is the transient, per-poll-cycle view of a job's remote state.
// It is replaced atomically on each refresh, never mutated field-by-field.
type JobStat struct {
	Name    string
	ID      string
	Machine string
	State   string // "R", "PD", "CG", ...
	Note    string // "P" (pending-confirm) or ""
}

// JobEnvelope is the wire format for both job submissions and snapshots:
// {"title": ..., "data": [...]}.
type JobEnvelope struct {
	Title string      `json:"title"`
	Data  []JobRecord `json:"data"`
}
