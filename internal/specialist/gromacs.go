package specialist

import "github.com/AmzelLab/fiesta3/internal/common"

// gromacsRequiredFields are the type-specific keys a Gromacs job's raw
// envelope must carry, beyond the Manager's base required set.
var gromacsRequiredFields = []string{"nameBase", "sectionNum", "mdp", "continuation"}

// Gromacs manages Gromacs molecular-dynamics jobs. It does not auto-submit
// on add; submission is driven entirely by the Supervisor's state machine.
type Gromacs struct {
	base
	logger common.Logger
}

// NewGromacs constructs an empty Gromacs Specialist.
func NewGromacs(logger common.Logger) *Gromacs {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Gromacs{base: newBase(), logger: logger}
}

func (g *Gromacs) AddJob(job common.JobRecord, raw map[string]any) bool {
	for _, key := range gromacsRequiredFields {
		if _, ok := raw[key]; !ok {
			g.logger.Log(common.LogError, "invalid gromacs job %s: no required field [%s]", job.Name, key)
			return false
		}
	}
	if !g.checkDuplicate(job.Name) {
		g.logger.Log(common.LogError, "add_job: name duplicate [%s]", job.Name)
		return false
	}
	g.store(job)
	g.logger.Log(common.LogInfo, "add_job: %s", job.Name)
	return true
}
