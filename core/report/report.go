package report

import (
	"context"
	"io"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
)

type Kind string

// Report kinds
const (
	Review1       Kind = "r1"
	Review2       Kind = "r2"
	AvgEvaluation Kind = "avg-evaluation"
	ReportMarks   Kind = "report-marks"
	FinalInternal Kind = "final-internal"
	TeamMaster    Kind = "team-master"
)

var Kinds = []Kind{Review1, Review2, AvgEvaluation, ReportMarks, FinalInternal, TeamMaster}

// errors
var ErrUnknownKind = core.NewMissingReference("report")

func (k Kind) IsValid() bool {
	for _, kind := range Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Sheet is a report projected into rows of strings and float64s, ready for rendering.
type Sheet struct {
	Kind     Kind            `json:"kind"`
	Name     string          `json:"name"`     // worksheet name
	Filename string          `json:"filename"` // without extension
	Title    string          `json:"title"`
	Headers  []string        `json:"headers"`
	Rows     [][]interface{} `json:"rows"`
}

// Renderer writes a Sheet in a file format.
type Renderer interface {
	Render(w io.Writer, sheet Sheet) error
	ContentType() string
	Extension() string
}

type (
	MemberLister interface {
		Members(ctx context.Context, scope evaluation.Scope) ([]evaluation.Member, error)
	}

	TeamLister interface {
		Query(ctx context.Context, filter *team.QueryFilter, ordering []core.DBOrdering) ([]team.Team, error)
	}

	Service struct {
		members MemberLister
		teams   TeamLister
	}
)

func NewService(members MemberLister, teams TeamLister) *Service {
	return &Service{members: members, teams: teams}
}

// Generate builds the report of kind k over every member (by registration number) or team (by ID).
func (svc *Service) Generate(ctx context.Context, k Kind) (Sheet, error) {
	if !k.IsValid() {
		return Sheet{}, ErrUnknownKind
	}
	if k == TeamMaster {
		teams, err := svc.teams.Query(ctx, nil, team.ByID)
		if err != nil {
			return Sheet{}, err
		}
		return ProjectTeamMaster(teams), nil
	}

	// every member, sorted by registration number
	members, err := svc.members.Members(ctx, evaluation.Scope{Evaluator: evaluation.Coordinator})
	if err != nil {
		return Sheet{}, err
	}
	switch k {
	case Review1:
		return ProjectReview(evaluation.Review1, members)
	case Review2:
		return ProjectReview(evaluation.Review2, members)
	case AvgEvaluation:
		return ProjectAvgEvaluation(members), nil
	case ReportMarks:
		return ProjectReportMarks(members), nil
	default:
		return ProjectFinalInternal(members), nil
	}
}
