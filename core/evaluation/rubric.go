package evaluation

// Cycle is one of the two scheduled review rounds.
type Cycle string

const (
	Review1 Cycle = "r1"
	Review2 Cycle = "r2"
)

var Cycles = []Cycle{Review1, Review2}

func (c Cycle) IsValid() bool { return c == Review1 || c == Review2 }

// Evaluator is a faculty role entering scores. Values match the corresponding user roles.
type Evaluator string

const (
	Coordinator Evaluator = "COORDINATOR"
	HOD         Evaluator = "HOD"
	Guide       Evaluator = "GUIDE"
)

var Evaluators = []Evaluator{Coordinator, HOD, Guide}

func (e Evaluator) IsValid() bool { return e == Coordinator || e == HOD || e == Guide }

// EvaluatorForRole maps a user role to the Evaluator it scores as.
func EvaluatorForRole(role string) (Evaluator, bool) {
	e := Evaluator(role)
	return e, e.IsValid()
}

// Rubric caps. A review is out of 40, Sheet 2 out of 15, reports and attendance out of 10.
const (
	MaxComp       = 10.0
	MaxFunc       = 5.0
	MaxPres       = 5.0
	MaxOral       = 10.0
	MaxKnow       = 10.0
	MaxReview     = MaxComp + MaxFunc + MaxPres + MaxOral + MaxKnow
	MaxTeamwork   = 4.0
	MaxTechKnow   = 6.0
	MaxRegularity = 5.0
	MaxSheet2     = MaxTeamwork + MaxTechKnow + MaxRegularity
	MaxReport     = 10.0
	MaxAttendance = 10.0
	MaxFinal      = MaxSheet2 + MaxReport + MaxReview + MaxAttendance
)

// RubricItem describes one scored field of the rubric.
type RubricItem struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Max   float64 `json:"max"`
}

var (
	ReviewItems = []RubricItem{
		{Key: "comp", Label: "Completeness", Max: MaxComp},
		{Key: "func", Label: "Functionality", Max: MaxFunc},
		{Key: "pres", Label: "Presentation", Max: MaxPres},
		{Key: "oral", Label: "Oral Communication", Max: MaxOral},
		{Key: "know", Label: "Subject Knowledge", Max: MaxKnow},
	}
	Sheet2Items = []RubricItem{
		{Key: "teamwork", Label: "Teamwork", Max: MaxTeamwork},
		{Key: "tech_know", Label: "Technical Knowledge", Max: MaxTechKnow},
		{Key: "regularity", Label: "Regularity", Max: MaxRegularity},
	}
)

// Review is the rubric one Evaluator enters for one member in one Cycle.
// Sub-scores are kept even when Absent is set, but ignored by the totals.
type Review struct {
	Comp   float64 `json:"comp" validate:"min=0,max=10"`
	Func   float64 `json:"func" validate:"min=0,max=5"`
	Pres   float64 `json:"pres" validate:"min=0,max=5"`
	Oral   float64 `json:"oral" validate:"min=0,max=10"`
	Know   float64 `json:"know" validate:"min=0,max=10"`
	Absent bool    `json:"absent"`
}

// Total is the sum of the five sub-scores, or 0 when the evaluator marked the member absent.
func (r Review) Total() float64 {
	if r.Absent {
		return 0.0
	}
	return r.Comp + r.Func + r.Pres + r.Oral + r.Know
}

// Sheet2 is the coordinator-only supplementary rubric.
type Sheet2 struct {
	Teamwork   float64 `json:"teamwork" validate:"min=0,max=4"`
	TechKnow   float64 `json:"tech_know" validate:"min=0,max=6"`
	Regularity float64 `json:"regularity" validate:"min=0,max=5"`
}

func (s Sheet2) Total() float64 {
	return s.Teamwork + s.TechKnow + s.Regularity
}
