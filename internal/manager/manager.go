// Package manager implements the top-level Job Manager: it validates job
// envelopes, dispatches jobs to the correct Specialist, and exposes
// add/remove/snapshot operations plus ownership of the Worker Pool.
package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/specialist"
	"github.com/AmzelLab/fiesta3/internal/worker"
)

// maxNameLength is the longest a job name may be; SLURM job-name
// directives and our snapshot/exclusion file naming both assume this.
const maxNameLength = 8

var headerFields = []string{"title", "data"}

var baseRequiredFields = []string{
	"name", "type", "remote", "batchType", "userId",
	"directory", "timeLimit", "numOfNodes", "numOfProcs",
	"numOfThrs", "partition",
}

// Manager is the top-level coordinator. It owns every Specialist and the
// Worker Pool; Supervisor reads and mutates JobRecords through the
// Specialists this Manager creates.
type Manager struct {
	logger  common.Logger
	factory *specialist.Factory

	mu          sync.Mutex
	specialists map[string]specialist.Specialist

	pool *worker.Pool

	// snapMu serialises snapshot file writes.
	snapMu sync.Mutex
}

// New constructs a Manager. Call TakeOffice before adding any job.
func New(logger common.Logger) *Manager {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Manager{
		logger:      logger,
		factory:     specialist.NewFactory(logger),
		specialists: make(map[string]specialist.Specialist),
	}
}

// TakeOffice creates the Worker Pool. Must be called before any AddJobs.
func (m *Manager) TakeOffice(numWorkers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = worker.New(numWorkers, m.logger)
}

// Pool exposes the Worker Pool so the Supervisor can schedule tasks on it.
func (m *Manager) Pool() *worker.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool
}

func headerInvalidString() string {
	return fmt.Sprintf(
		"Your jobs are rejected due to invalid header.\n"+
			"Job header should contain the following required fields:\n\t\t %s\n",
		strings.Join(headerFields, "\t"))
}

func addJobsResult(accepted, declined []string) string {
	return fmt.Sprintf("ACCEPTED: %s\nDECLINED: %s\n", strings.Join(accepted, " "), strings.Join(declined, " "))
}

func checkRequiredFields(raw map[string]any, required []string) (string, bool) {
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			return key, false
		}
	}
	return "", true
}

// AddJobs validates the envelope header, dispatches each item to its
// Specialist, and returns a human-readable ACCEPTED/DECLINED report.
func (m *Manager) AddJobs(envelope []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(envelope, &raw); err != nil {
		m.logger.Log(common.LogError, "invalid envelope JSON: %v", err)
		return headerInvalidString()
	}

	if _, ok := checkRequiredFields(raw, headerFields); !ok {
		m.logger.Log(common.LogError, "invalid header type, rejected")
		return headerInvalidString()
	}

	items, ok := raw["data"].([]any)
	if !ok {
		m.logger.Log(common.LogError, "invalid header type: data is not a list")
		return headerInvalidString()
	}

	var accepted, declined []string
	for _, rawItem := range items {
		jobMap, ok := rawItem.(map[string]any)
		if !ok {
			declined = append(declined, "<malformed>")
			continue
		}
		name, _ := jobMap["name"].(string)
		if m.addJob(jobMap) {
			accepted = append(accepted, name)
		} else {
			declined = append(declined, name)
		}
	}

	return addJobsResult(accepted, declined)
}

func (m *Manager) addJob(raw map[string]any) bool {
	if missing, ok := checkRequiredFields(raw, baseRequiredFields); !ok {
		m.logger.Log(common.LogError, "invalid job: no required field [%s]", missing)
		return false
	}

	name, _ := raw["name"].(string)
	if len(name) > maxNameLength {
		m.logger.Log(common.LogError, "job name has a length > %d (%s)", maxNameLength, name)
		return false
	}

	jobType, _ := raw["type"].(string)

	encoded, err := json.Marshal(raw)
	if err != nil {
		m.logger.Log(common.LogError, "failed to re-encode job %s: %v", name, err)
		return false
	}
	var record common.JobRecord
	if err := json.Unmarshal(encoded, &record); err != nil {
		m.logger.Log(common.LogError, "failed to decode job %s: %v", name, err)
		return false
	}
	record.JobID = ""
	record.ExpCompletion = 0
	record.Makeup = false

	sp := m.specialistFor(jobType)
	if sp == nil {
		return false
	}

	if !sp.AddJob(record, raw) {
		m.logger.Log(common.LogInfo, "job [%s] declined", name)
		return false
	}
	m.logger.Log(common.LogInfo, "job [%s] added", name)
	return true
}

func (m *Manager) specialistFor(jobType string) specialist.Specialist {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sp, ok := m.specialists[jobType]; ok {
		return sp
	}
	sp, ok := m.factory.Create(jobType)
	if !ok {
		return nil
	}
	m.specialists[jobType] = sp
	return sp
}

// Specialists returns a point-in-time snapshot of every registered
// Specialist, for the Supervisor to iterate when polling remote state.
func (m *Manager) Specialists() []specialist.Specialist {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]specialist.Specialist, 0, len(m.specialists))
	for _, sp := range m.specialists {
		out = append(out, sp)
	}
	return out
}

// RemoveJobs is best-effort. No Specialist in this repo exposes removal
// of an individual job from its table (the reference manager.py's
// remove_jobs is likewise an unimplemented stub); this is the documented
// seam for that extension.
func (m *Manager) RemoveJobs(names []string) {
	m.logger.Log(common.LogInfo, "remove_jobs requested for %v (not yet supported by any Specialist)", names)
}

// Snapshot merges every Specialist's job view into one envelope and
// writes it to path as pretty-printed JSON.
func (m *Manager) Snapshot(path string) (string, error) {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()

	m.mu.Lock()
	specialists := make([]specialist.Specialist, 0, len(m.specialists))
	for _, sp := range m.specialists {
		specialists = append(specialists, sp)
	}
	m.mu.Unlock()

	env := common.JobEnvelope{Title: "Snapshot"}
	for _, sp := range specialists {
		env.Data = append(env.Data, sp.Jobs()...)
	}
	sort.Slice(env.Data, func(i, j int) bool { return env.Data[i].Name < env.Data[j].Name })

	out, err := json.MarshalIndent(env, "", "    ")
	if err != nil {
		return "", errors.Wrap(err, "marshaling snapshot")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing snapshot to %s", path)
	}

	msg := fmt.Sprintf("snapshot dumped to file %s", path)
	m.logger.Log(common.LogInfo, msg)
	return msg, nil
}
