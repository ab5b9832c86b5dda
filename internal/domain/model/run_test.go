package model_test

import (
	"testing"

	"github.com/okian/rbcfuse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRunAppend(t *testing.T) {
	Convey("Given an empty run", t, func() {
		run := model.NewRun("a.run")

		Convey("When appending documents for two topics", func() {
			run.Append(401, "d1", 12.5)
			run.Append(401, "d2", 11.0)
			run.Append(402, "d9", 3.0)
			last := run.Append(401, "d3", 10.0)

			Convey("Then ranks are assigned per topic in arrival order", func() {
				So(run.Len(), ShouldEqual, 4)
				So(run.Entries[0].Rank, ShouldEqual, 1)
				So(run.Entries[1].Rank, ShouldEqual, 2)
				So(run.Entries[2].Rank, ShouldEqual, 1)
				So(last.Rank, ShouldEqual, 3)
				So(last.Topic, ShouldEqual, 401)
				So(last.Score, ShouldEqual, 10.0)
			})

			Convey("And topics are recorded once in order of first appearance", func() {
				So(run.Topics, ShouldResemble, []int{401, 402})
			})

			Convey("And the deepest rank is tracked", func() {
				So(run.MaxRank, ShouldEqual, 3)
			})
		})

		Convey("When the run is a zero value", func() {
			var zero model.Run
			zero.Append(1, "x", 0)

			Convey("Then it should still work", func() {
				So(zero.MaxRank, ShouldEqual, 1)
				So(zero.Topics, ShouldResemble, []int{1})
			})
		})
	})
}

func TestMaxRank(t *testing.T) {
	Convey("Given several runs of different depth", t, func() {
		a := model.NewRun("a")
		a.Append(1, "x", 0)
		b := model.NewRun("b")
		b.Append(1, "x", 0)
		b.Append(1, "y", 0)
		b.Append(1, "z", 0)

		Convey("Then MaxRank should return the deepest", func() {
			So(model.MaxRank([]*model.Run{a, b}), ShouldEqual, 3)
			So(model.MaxRank(nil), ShouldEqual, 0)
		})
	})
}
