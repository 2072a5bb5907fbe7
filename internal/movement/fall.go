package movement

import (
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/util"
)

// maxSafeFallBlocks is the deepest drop onto a solid surface that doesn't
// risk fall damage.
const maxSafeFallBlocks = 3

// maxWaterBucketFallBlocks is the deepest drop a water-bucket cushion can
// cover, used only when the run's AllowWaterBucket flag is set.
const maxWaterBucketFallBlocks = 20

// maxScanDepth bounds how far down Fall looks for a landing surface before
// giving up.
const maxScanDepth = 32

const fallTicksPerBlock = 4.0

// Fall drops straight down onto the first walk-on or water surface found
// within a safe height, optionally cushioned by water (always safe) or a
// placed water bucket (safe up to maxWaterBucketFallBlocks when allowed).
type Fall struct {
	ticks    int64
	dest     util.Pos
	dropDist int
}

func NewFall() *Fall {
	return &Fall{}
}

func (f *Fall) Name() string { return "fall" }

func (f *Fall) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	for depth := 1; depth <= maxScanDepth; depth++ {
		candidate := util.Pos{X: src.X, Y: src.Y - depth, Z: src.Z}
		v, ok := env.lookup(candidate)
		if !ok {
			return Result{}, false
		}
		switch v {
		case chunkcache.Solid:
			landing := util.Pos{X: candidate.X, Y: candidate.Y + 1, Z: candidate.Z}
			bucket := env.Calc.Flags.AllowWaterBucket && depth-1 <= maxWaterBucketFallBlocks
			if depth-1 > maxSafeFallBlocks && !bucket {
				return Result{}, false
			}
			if !env.clearance(landing, bodyHeight) {
				return Result{}, false
			}
			f.dest = landing
			f.dropDist = depth
			return Result{Dest: landing, Cost: env.cost(float64(depth)*fallTicksPerBlock, nil, nil, landing)}, true
		case chunkcache.Water:
			landing := util.Pos{X: candidate.X, Y: candidate.Y, Z: candidate.Z}
			f.dest = landing
			f.dropDist = depth
			return Result{Dest: landing, Cost: env.cost(float64(depth)*fallTicksPerBlock, nil, nil, landing)}, true
		case chunkcache.Avoid:
			return Result{}, false
		default:
			continue
		}
	}
	if env.Calc.Flags.AllowWaterBucket && maxScanDepth <= maxWaterBucketFallBlocks {
		landing := util.Pos{X: src.X, Y: src.Y - maxScanDepth, Z: src.Z}
		f.dest = landing
		f.dropDist = maxScanDepth
		return Result{Dest: landing, Cost: env.cost(float64(maxScanDepth)*fallTicksPerBlock, nil, nil, landing)}, true
	}
	return Result{}, false
}

func (f *Fall) Execute(env *Env, tick int64) Status {
	f.ticks++
	if f.ticks >= int64(float64(f.dropDist)*fallTicksPerBlock) {
		return Success
	}
	return Running
}

func (f *Fall) Reset() { f.ticks = 0 }

func (f *Fall) ValidPositions() []util.Pos {
	return []util.Pos{f.dest}
}
