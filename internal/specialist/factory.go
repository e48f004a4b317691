package specialist

import "github.com/AmzelLab/fiesta3/internal/common"

// Factory is the closed registry of job-type constructors. Unknown types
// yield (nil, false) and are logged as an error by Create.
type Factory struct {
	logger common.Logger
}

// NewFactory builds a Factory bound to logger.
func NewFactory(logger common.Logger) *Factory {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Factory{logger: logger}
}

// Create instantiates a new Specialist for jobType, or (nil, false) if
// jobType is not registered.
func (f *Factory) Create(jobType string) (Specialist, bool) {
	switch jobType {
	case "Gromacs":
		f.logger.Log(common.LogInfo, "create a specialist of type [Gromacs]")
		return NewGromacs(f.logger), true
	case "Test":
		f.logger.Log(common.LogInfo, "create a specialist of type [Test]")
		return NewTest(f.logger), true
	default:
		f.logger.Log(common.LogError, "no specialist named [%sSpecialist] is available", jobType)
		return nil, false
	}
}
