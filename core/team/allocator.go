package team

import "errors"

var ErrNoGuideAvailable = errors.New("no guide is available to supervise a new team, please try again later")

// AllocateGuide picks the guide supervising the fewest teams.
// Ties go to the lowest guide ID so the choice does not depend on the order of guides.
func AllocateGuide(guides []Guide) (Guide, error) {
	if len(guides) == 0 {
		return Guide{}, ErrNoGuideAvailable
	}
	best := guides[0]
	for _, g := range guides[1:] {
		if g.Load < best.Load || (g.Load == best.Load && g.ID < best.ID) {
			best = g
		}
	}
	return best, nil
}
