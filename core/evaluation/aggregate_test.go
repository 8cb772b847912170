package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	maxReview  = Review{Comp: MaxComp, Func: MaxFunc, Pres: MaxPres, Oral: MaxOral, Know: MaxKnow}
	maxSheet2  = Sheet2{Teamwork: MaxTeamwork, TechKnow: MaxTechKnow, Regularity: MaxRegularity}
	someReview = Review{Comp: 7, Func: 3.5, Pres: 4, Oral: 6, Know: 8.25}
)

func maxMember() Member {
	m := NewMember("TM00001", "Asha", "21CS001", true)
	for _, c := range Cycles {
		for _, e := range Evaluators {
			m.SetReview(c, e, maxReview)
		}
	}
	for _, e := range Evaluators {
		m.SetReport(e, MaxReport)
	}
	m.Sheet2 = maxSheet2
	m.Attendance = MaxAttendance
	return m
}

func TestReviewTotal(t *testing.T) {
	absentMax := maxReview
	absentMax.Absent = true

	tests := []struct {
		name   string
		review *Review
		want   float64
	}{
		{name: "never entered", want: 0.0},
		{name: "all zero", review: &Review{}, want: 0.0},
		{name: "all max", review: &maxReview, want: 40.0},
		{name: "partial", review: &someReview, want: 28.75},
		{name: "absent ignores stored scores", review: &absentMax, want: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMember("TM00001", "Asha", "21CS001", false)
			if tt.review != nil {
				m.SetReview(Review1, HOD, *tt.review)
			}
			if got := m.ReviewTotal(Review1, HOD); got != tt.want {
				t.Errorf("ReviewTotal() = %v, want %v", got, tt.want)
			}
			// other pairs are untouched
			if got := m.ReviewTotal(Review2, HOD); got != 0.0 {
				t.Errorf("ReviewTotal(r2) = %v, want 0", got)
			}
		})
	}
}

func TestReviewTotalOnZeroValueMember(t *testing.T) {
	var m Member // nil maps
	assert.Equal(t, 0.0, m.ReviewTotal(Review1, Coordinator))
	assert.Equal(t, 0.0, m.ConsolidatedReview(Review2))
	assert.Equal(t, 0.0, m.ConsolidatedReport())
	assert.Equal(t, 0.0, m.FinalInternal())
}

func TestConsolidatedReview(t *testing.T) {
	tests := []struct {
		name              string
		coord, hod, guide Review
		want              float64
	}{
		{name: "no entries", want: 0.0},
		{name: "all max", coord: maxReview, hod: maxReview, guide: maxReview, want: 40.0},
		{name: "only guide", guide: maxReview, want: 40.0 / 3.0},
		{name: "mixed", coord: maxReview, hod: someReview, guide: Review{Comp: 1}, want: (40.0 + 28.75 + 1.0) / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMember("TM00001", "Asha", "21CS001", false)
			m.SetReview(Review2, Coordinator, tt.coord)
			m.SetReview(Review2, HOD, tt.hod)
			m.SetReview(Review2, Guide, tt.guide)

			got := m.ConsolidatedReview(Review2)
			if got != tt.want {
				t.Errorf("ConsolidatedReview() = %v, want %v", got, tt.want)
			}
			sum := m.ReviewTotal(Review2, Coordinator) + m.ReviewTotal(Review2, HOD) + m.ReviewTotal(Review2, Guide)
			assert.Equal(t, sum/3, got)
		})
	}
}

func TestAvgEvaluation(t *testing.T) {
	m := NewMember("TM00001", "Asha", "21CS001", false)
	for _, e := range Evaluators {
		m.SetReview(Review1, e, maxReview)
		m.SetReview(Review2, e, Review{})
	}
	assert.Equal(t, 20.0, m.AvgEvaluation())

	m.SetReview(Review2, Guide, maxReview)
	assert.InDelta(t, 80.0/3.0, m.AvgEvaluation(), 1e-9)
}

func TestConsolidatedReport(t *testing.T) {
	m := NewMember("TM00001", "Asha", "21CS001", false)
	assert.Equal(t, 0.0, m.ConsolidatedReport())

	m.SetReport(Guide, 9)
	m.SetReport(HOD, 6)
	assert.Equal(t, 5.0, m.ConsolidatedReport())

	m.SetReport(Coordinator, 6)
	assert.Equal(t, 7.0, m.ConsolidatedReport())
}

func TestSheet2Total(t *testing.T) {
	m := NewMember("TM00001", "Asha", "21CS001", false)
	assert.Equal(t, 0.0, m.Sheet2Total())

	m.Sheet2 = maxSheet2
	assert.Equal(t, 15.0, m.Sheet2Total())

	m.Sheet2 = Sheet2{Teamwork: 2.5, Regularity: 1}
	assert.Equal(t, 3.5, m.Sheet2Total())
}

func TestFinalInternal(t *testing.T) {
	t.Run("all max", func(t *testing.T) {
		m := maxMember()
		assert.Equal(t, 75.0, m.FinalInternal())
		assert.Equal(t, MaxFinal, m.FinalInternal())
	})
	t.Run("all zero", func(t *testing.T) {
		m := NewMember("TM00001", "Asha", "21CS001", false)
		assert.Equal(t, 0.0, m.FinalInternal())
	})
	t.Run("all max but absent everywhere", func(t *testing.T) {
		m := maxMember()
		for _, c := range Cycles {
			for _, e := range Evaluators {
				rev := m.Reviews.Get(c, e)
				rev.Absent = true
				m.SetReview(c, e, rev)
			}
		}
		assert.Equal(t, 35.0, m.FinalInternal())
	})
	t.Run("is the sum of its parts", func(t *testing.T) {
		m := NewMember("TM00001", "Asha", "21CS001", false)
		m.SetReview(Review1, Coordinator, someReview)
		m.SetReview(Review2, HOD, maxReview)
		m.SetReport(Guide, 8)
		m.Sheet2 = Sheet2{Teamwork: 3, TechKnow: 4, Regularity: 5}
		m.Attendance = 9.5
		want := m.Sheet2Total() + m.ConsolidatedReport() + m.AvgEvaluation() + m.Attendance
		assert.Equal(t, want, m.FinalInternal())
	})
}

func TestReview1Scenario(t *testing.T) {
	m := NewMember("TM00001", "Asha", "21CS001", true)
	m.SetReview(Review1, Coordinator, Review{Comp: 10, Func: 5, Pres: 5, Oral: 10, Know: 10})
	m.SetReview(Review1, HOD, Review{Comp: 8, Func: 4, Pres: 4, Oral: 9, Know: 9, Absent: true})
	m.SetReview(Review1, Guide, Review{})

	totals := m.Totals()
	assert.Equal(t, 40.0, totals.R1CoordTotal)
	assert.Equal(t, 0.0, totals.R1HODTotal)
	assert.Equal(t, 0.0, totals.R1GuideTotal)
	assert.Equal(t, 40.0/3.0, totals.R1Consolidated)
	assert.InDelta(t, 13.333333, totals.R1Consolidated, 1e-6)
}

func TestCopy(t *testing.T) {
	m := maxMember()
	cp := m.Copy()
	cp.SetReview(Review1, Guide, Review{})
	cp.SetReport(HOD, 0)

	assert.Equal(t, 40.0, m.ReviewTotal(Review1, Guide))
	assert.Equal(t, 10.0, m.Reports[HOD])
	assert.Equal(t, 0.0, cp.ReviewTotal(Review1, Guide))
}
