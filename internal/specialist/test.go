package specialist

import "github.com/AmzelLab/fiesta3/internal/common"

// Test is a Specialist with no type-specific required fields, used for
// exercising the Manager/Supervisor plumbing without a real job type.
type Test struct {
	base
	logger common.Logger
}

// NewTest constructs an empty Test Specialist.
func NewTest(logger common.Logger) *Test {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Test{base: newBase(), logger: logger}
}

func (t *Test) AddJob(job common.JobRecord, raw map[string]any) bool {
	if !t.checkDuplicate(job.Name) {
		t.logger.Log(common.LogError, "add_job: name duplicate [%s]", job.Name)
		return false
	}
	t.store(job)
	t.logger.Log(common.LogInfo, "add_job: %s", job.Name)
	return true
}
