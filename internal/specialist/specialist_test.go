package specialist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AmzelLab/fiesta3/internal/common"
)

func rawGromacsJob(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"type":         "Gromacs",
		"nameBase":     "md",
		"sectionNum":   float64(0),
		"mdp":          "prod",
		"continuation": false,
	}
}

func TestGromacsAddJobRejectsMissingTypeField(t *testing.T) {
	a := assert.New(t)

	sp := NewGromacs(nil)
	raw := rawGromacsJob("md01")
	delete(raw, "mdp")

	ok := sp.AddJob(common.JobRecord{Name: "md01"}, raw)

	a.False(ok)
	a.Empty(sp.Jobs())
}

func TestGromacsAddJobAcceptsZeroValuedSectionNum(t *testing.T) {
	a := assert.New(t)

	sp := NewGromacs(nil)
	raw := rawGromacsJob("md01")

	ok := sp.AddJob(common.JobRecord{Name: "md01", SectionNum: 0}, raw)

	a.True(ok)
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	a := assert.New(t)

	sp := NewGromacs(nil)
	raw := rawGromacsJob("md01")

	a.True(sp.AddJob(common.JobRecord{Name: "md01"}, raw))
	a.False(sp.AddJob(common.JobRecord{Name: "md01"}, raw))
	a.Len(sp.Jobs(), 1)
}

func TestJobsPreservesInsertionOrderByIdx(t *testing.T) {
	a := assert.New(t)

	sp := NewGromacs(nil)
	for _, name := range []string{"md03", "md01", "md02"} {
		a.True(sp.AddJob(common.JobRecord{Name: name}, rawGromacsJob(name)))
	}

	names := make([]string, 0, 3)
	for _, job := range sp.Jobs() {
		names = append(names, job.Name)
	}
	a.Equal([]string{"md03", "md01", "md02"}, names)
}

func TestJobReturnsMutablePointer(t *testing.T) {
	a := assert.New(t)

	sp := NewGromacs(nil)
	a.True(sp.AddJob(common.JobRecord{Name: "md01"}, rawGromacsJob("md01")))

	job, ok := sp.Job("md01")
	a.True(ok)
	job.Makeup = true

	again, _ := sp.Job("md01")
	a.True(again.Makeup)
}

func TestTestSpecialistHasNoTypeSpecificRequiredFields(t *testing.T) {
	a := assert.New(t)

	sp := NewTest(nil)
	raw := map[string]any{"name": "t01", "type": "Test"}

	a.True(sp.AddJob(common.JobRecord{Name: "t01"}, raw))
}
