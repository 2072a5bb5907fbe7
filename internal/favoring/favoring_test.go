package favoring

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"voxelnav/internal/util"
)

func TestFavoring(t *testing.T) {
	Convey("Given a Favoring built from a previous path and avoidance points", t, func() {
		Convey("When a position sits on the corridor versus far from it", func() {
			path := []util.Pos{{X: 0, Y: 64, Z: 0}, {X: 1, Y: 64, Z: 0}, {X: 2, Y: 64, Z: 0}}
			f := New(path, nil)

			onPath := f.Multiplier(1, 64, 0)
			farAway := f.Multiplier(100, 64, 100)

			Convey("The corridor multiplier should be lower", func() {
				So(onPath, ShouldBeLessThan, farAway)
			})
		})

		Convey("When a position sits near versus far from an avoidance point", func() {
			f := New(nil, []AvoidancePoint{{Pos: util.Pos{X: 0, Y: 64, Z: 0}, Strength: 10}})

			near := f.Multiplier(0, 64, 1)
			far := f.Multiplier(50, 64, 50)

			Convey("The near multiplier should exceed the far one", func() {
				So(near, ShouldBeGreaterThan, far)
			})
		})

		Convey("When multiple strong avoidance points overlap", func() {
			f := New(nil, []AvoidancePoint{
				{Pos: util.Pos{X: 0, Y: 0, Z: 0}, Strength: 1000},
				{Pos: util.Pos{X: 0, Y: 0, Z: 1}, Strength: 1000},
			})

			m := f.Multiplier(0, 0, 0)

			Convey("The combined penalty should saturate at the documented cap", func() {
				So(m, ShouldBeLessThanOrEqualTo, 1+avoidancePenaltyCap+1e-9)
			})
		})

		Convey("When the same position is queried twice", func() {
			path := []util.Pos{{X: 0, Y: 64, Z: 0}, {X: 3, Y: 64, Z: 3}}
			f := New(path, []AvoidancePoint{{Pos: util.Pos{X: 10, Y: 0, Z: 10}, Strength: 5}})

			a := f.Multiplier(1, 64, 1)
			b := f.Multiplier(1, 64, 1)

			Convey("The multiplier should be deterministic", func() {
				So(a, ShouldEqual, b)
			})
		})
	})
}
