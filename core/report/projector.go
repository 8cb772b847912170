package report

import (
	"fmt"
	"strings"

	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
)

// The projectors keep the order of their input.

// reviewSheets holds the sheet metadata of each review cycle.
var reviewSheets = map[evaluation.Cycle]Sheet{
	evaluation.Review1: {Kind: Review1, Name: "Review 1", Filename: "R1_Consolidated", Title: "REVIEW 1 CONSOLIDATED"},
	evaluation.Review2: {Kind: Review2, Name: "Review 2", Filename: "R2_Consolidated", Title: "REVIEW 2 CONSOLIDATED"},
}

// ProjectReview lists each member's totals of cycle c: RegNo, Name, Guide, HOD, Coord, Total (40).
func ProjectReview(c evaluation.Cycle, members []evaluation.Member) (Sheet, error) {
	sheet, ok := reviewSheets[c]
	if !ok {
		return Sheet{}, evaluation.ErrInvalidCycle
	}
	sheet.Headers = []string{"Reg No", "Name", "Guide", "HOD", "Coord", "Total (40)"}
	sheet.Rows = make([][]interface{}, 0, len(members))
	for _, m := range members {
		sheet.Rows = append(sheet.Rows, []interface{}{
			m.RegNumber, m.Name,
			m.ReviewTotal(c, evaluation.Guide),
			m.ReviewTotal(c, evaluation.HOD),
			m.ReviewTotal(c, evaluation.Coordinator),
			m.ConsolidatedReview(c),
		})
	}
	return sheet, nil
}

// ProjectAvgEvaluation: RegNo, Name, R1 Cons, R2 Cons, Avg (40).
func ProjectAvgEvaluation(members []evaluation.Member) Sheet {
	sheet := Sheet{
		Kind:     AvgEvaluation,
		Name:     "Average Eval",
		Filename: "Avg_Evaluation",
		Title:    "AVERAGE EVALUATION (40)",
		Headers:  []string{"Reg No", "Name", "R1 Cons", "R2 Cons", "Avg (40)"},
		Rows:     make([][]interface{}, 0, len(members)),
	}
	for _, m := range members {
		sheet.Rows = append(sheet.Rows, []interface{}{
			m.RegNumber, m.Name,
			m.ConsolidatedReview(evaluation.Review1),
			m.ConsolidatedReview(evaluation.Review2),
			m.AvgEvaluation(),
		})
	}
	return sheet
}

// ProjectReportMarks: RegNo, Name, Guide, HOD, Coord, Consolidated (10).
func ProjectReportMarks(members []evaluation.Member) Sheet {
	sheet := Sheet{
		Kind:     ReportMarks,
		Name:     "Report Marks",
		Filename: "Report_Marks",
		Title:    "REPORT MARKS CONSOLIDATED",
		Headers:  []string{"Reg No", "Name", "Guide", "HOD", "Coord", "Consolidated (10)"},
		Rows:     make([][]interface{}, 0, len(members)),
	}
	for _, m := range members {
		sheet.Rows = append(sheet.Rows, []interface{}{
			m.RegNumber, m.Name,
			m.Reports[evaluation.Guide],
			m.Reports[evaluation.HOD],
			m.Reports[evaluation.Coordinator],
			m.ConsolidatedReport(),
		})
	}
	return sheet
}

// FinalColumn is the index of the Final (75) column of the final internal report.
const FinalColumn = 6

// ProjectFinalInternal: RegNo, Name, Avg Eval, Sheet 2, Report, Attend, Final (75).
func ProjectFinalInternal(members []evaluation.Member) Sheet {
	sheet := Sheet{
		Kind:     FinalInternal,
		Name:     "Final Internal",
		Filename: "Final_Internal_75",
		Title:    "FINAL INTERNAL MARKS (75)",
		Headers:  []string{"Reg No", "Name", "Avg Eval", "Sheet 2", "Report", "Attend", "Final (75)"},
		Rows:     make([][]interface{}, 0, len(members)),
	}
	for _, m := range members {
		sheet.Rows = append(sheet.Rows, []interface{}{
			m.RegNumber, m.Name,
			m.AvgEvaluation(),
			m.Sheet2Total(),
			m.ConsolidatedReport(),
			m.Attendance,
			m.FinalInternal(),
		})
	}
	return sheet
}

// ProjectTeamMaster: Team ID, Project Title, Guide, Members Details ("Name (RegNo)" joined by commas).
func ProjectTeamMaster(teams []team.Team) Sheet {
	sheet := Sheet{
		Kind:     TeamMaster,
		Name:     "Teams",
		Filename: "Team_Master_Record",
		Title:    "OFFICIAL TEAM MASTER RECORD",
		Headers:  []string{"Team ID", "Project Title", "Guide", "Members Details"},
		Rows:     make([][]interface{}, 0, len(teams)),
	}
	for _, t := range teams {
		title := t.ProjectTitle
		if title == "" {
			title = team.TitleNotSet
		}
		guide := t.GuideName
		if !t.HasGuide() {
			guide = team.GuideNotAssigned
		}
		details := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			details = append(details, fmt.Sprintf("%s (%s)", m.Name, m.RegNumber))
		}
		sheet.Rows = append(sheet.Rows, []interface{}{t.ID, title, guide, strings.Join(details, ", ")})
	}
	return sheet
}
