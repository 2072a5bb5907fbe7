package movement

import "voxelnav/internal/util"

var cardinalDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var diagonalDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// Candidates builds one instance of every closed-set primitive applicable
// from src, for the planner to evaluate via IntrinsicCost. Infeasible
// combinations are left for the caller to discover through IntrinsicCost's
// ok return rather than filtered here, matching the teacher's
// neighbor-generation step which always walks the full static move set.
func Candidates(src util.Pos) []Primitive {
	var out []Primitive
	for _, d := range cardinalDirs {
		out = append(out,
			NewWalk(d[0], d[1]),
			NewAscendBlock(d[0], d[1]),
			NewDescendBlock(d[0], d[1]),
			NewBreakAndWalk(d[0], d[1]),
			NewPlaceAndWalk(d[0], d[1]),
		)
		for gap := minParkourGap; gap <= maxParkourGap; gap++ {
			out = append(out, NewParkourJump(d[0], d[1], gap))
		}
	}
	for _, d := range diagonalDirs {
		out = append(out, NewDiagonal(d[0], d[1]))
	}
	out = append(out,
		NewFall(),
		NewSwimAscend(),
		NewSwimDescend(),
		NewClimbUp(),
		NewClimbDown(),
		NewPillar(),
	)
	return out
}
