package evaluation

// Reviews holds every Review of a member keyed by (Cycle, Evaluator).
// A missing entry reads as the zero Review: all sub-scores 0.0, not absent.
type Reviews map[Cycle]map[Evaluator]Review

func (r Reviews) Get(c Cycle, e Evaluator) Review {
	return r[c][e] // nil maps read as zero values
}

func (r Reviews) Set(c Cycle, e Evaluator, rev Review) {
	if r[c] == nil {
		r[c] = make(map[Evaluator]Review, len(Evaluators))
	}
	r[c][e] = rev
}

// Reports holds each Evaluator's report mark. A missing entry reads as 0.0.
type Reports map[Evaluator]float64

// Member is the score record of one student of a Team.
// Every numeric field defaults to 0.0; the aggregation below never sees an unset value.
type Member struct {
	ID         int64   `json:"id"`
	TeamID     string  `json:"team_id"`
	Name       string  `json:"name"`
	RegNumber  string  `json:"reg_number"`
	IsLeader   bool    `json:"is_leader"`
	Reviews    Reviews `json:"reviews"`
	Sheet2     Sheet2  `json:"sheet2"`
	Reports    Reports `json:"reports"`
	Attendance float64 `json:"attendance_marks"`
}

// NewMember returns a zero-scored Member.
func NewMember(teamID, name, regNumber string, isLeader bool) Member {
	return Member{
		TeamID:    teamID,
		Name:      name,
		RegNumber: regNumber,
		IsLeader:  isLeader,
		Reviews:   make(Reviews, len(Cycles)),
		Reports:   make(Reports, len(Evaluators)),
	}
}

// SetReview sets the Review of e for cycle c.
func (m *Member) SetReview(c Cycle, e Evaluator, rev Review) {
	if m.Reviews == nil {
		m.Reviews = make(Reviews, len(Cycles))
	}
	m.Reviews.Set(c, e, rev)
}

// SetReport sets the report mark of e.
func (m *Member) SetReport(e Evaluator, mark float64) {
	if m.Reports == nil {
		m.Reports = make(Reports, len(Evaluators))
	}
	m.Reports[e] = mark
}

// Copy returns a deep copy of m.
func (m Member) Copy() Member {
	cp := m
	cp.Reviews = make(Reviews, len(m.Reviews))
	for c, byEval := range m.Reviews {
		for e, rev := range byEval {
			cp.Reviews.Set(c, e, rev)
		}
	}
	cp.Reports = make(Reports, len(m.Reports))
	for e, mark := range m.Reports {
		cp.Reports[e] = mark
	}
	return cp
}

// MemberFilter restricts the members returned by a Repository. Zero values match everything.
type MemberFilter struct {
	IDs     []int64
	TeamIDs []string
	GuideID string // members of teams supervised by this guide
}
