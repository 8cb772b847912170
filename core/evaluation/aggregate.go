package evaluation

// Aggregation of a Member's marks.
// All arithmetic is float64 and unrounded; averages always divide by a fixed number of
// evaluators/cycles, so an evaluator who entered nothing counts as zero.

// ReviewTotal is the total (out of 40) given by e in cycle c; 0 when e marked the member absent.
func (m Member) ReviewTotal(c Cycle, e Evaluator) float64 {
	return m.Reviews.Get(c, e).Total()
}

// ConsolidatedReview is the mean (out of 40) of the three evaluators' totals for cycle c.
func (m Member) ConsolidatedReview(c Cycle) float64 {
	sum := m.ReviewTotal(c, Coordinator) + m.ReviewTotal(c, HOD) + m.ReviewTotal(c, Guide)
	return sum / 3.0
}

// AvgEvaluation is the mean (out of 40) of both cycles' consolidated reviews.
func (m Member) AvgEvaluation() float64 {
	return (m.ConsolidatedReview(Review1) + m.ConsolidatedReview(Review2)) / 2.0
}

// ConsolidatedReport is the mean (out of 10) of the three evaluators' report marks.
func (m Member) ConsolidatedReport() float64 {
	return (m.Reports[Guide] + m.Reports[Coordinator] + m.Reports[HOD]) / 3.0
}

// Sheet2Total is the Sheet 2 total (out of 15).
func (m Member) Sheet2Total() float64 {
	return m.Sheet2.Total()
}

// FinalInternal is the final internal mark (out of 75):
// Sheet 2 (15) + consolidated report (10) + average evaluation (40) + attendance (10).
func (m Member) FinalInternal() float64 {
	return m.Sheet2Total() + m.ConsolidatedReport() + m.AvgEvaluation() + m.Attendance
}

// Totals are all the derived marks of a Member.
type Totals struct {
	R1CoordTotal       float64 `json:"r1_coord_total"`
	R1HODTotal         float64 `json:"r1_hod_total"`
	R1GuideTotal       float64 `json:"r1_guide_total"`
	R1Consolidated     float64 `json:"r1_consolidated_40"`
	R2CoordTotal       float64 `json:"r2_coord_total"`
	R2HODTotal         float64 `json:"r2_hod_total"`
	R2GuideTotal       float64 `json:"r2_guide_total"`
	R2Consolidated     float64 `json:"r2_consolidated_40"`
	AvgEvaluation      float64 `json:"avg_evaluation_40"`
	ConsolidatedReport float64 `json:"consolidated_report_10"`
	Sheet2Total        float64 `json:"s2_total"`
	FinalInternal      float64 `json:"final_internal_75"`
}

func (m Member) Totals() Totals {
	return Totals{
		R1CoordTotal:       m.ReviewTotal(Review1, Coordinator),
		R1HODTotal:         m.ReviewTotal(Review1, HOD),
		R1GuideTotal:       m.ReviewTotal(Review1, Guide),
		R1Consolidated:     m.ConsolidatedReview(Review1),
		R2CoordTotal:       m.ReviewTotal(Review2, Coordinator),
		R2HODTotal:         m.ReviewTotal(Review2, HOD),
		R2GuideTotal:       m.ReviewTotal(Review2, Guide),
		R2Consolidated:     m.ConsolidatedReview(Review2),
		AvgEvaluation:      m.AvgEvaluation(),
		ConsolidatedReport: m.ConsolidatedReport(),
		Sheet2Total:        m.Sheet2Total(),
		FinalInternal:      m.FinalInternal(),
	}
}

// ScoredMember is a Member along with its Totals.
type ScoredMember struct {
	Member
	Totals Totals `json:"totals"`
}

func Score(members ...Member) []ScoredMember {
	scored := make([]ScoredMember, 0, len(members))
	for _, m := range members {
		scored = append(scored, ScoredMember{Member: m, Totals: m.Totals()})
	}
	return scored
}
