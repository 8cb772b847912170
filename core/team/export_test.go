package team

// test hooks
var (
	RandIntn           = &randIntn
	ErrTeamIDExhausted = errTeamIDExhausted
)
