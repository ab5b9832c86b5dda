package trec_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/rbcfuse/internal/adapters/trec"
	"github.com/okian/rbcfuse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRead(t *testing.T) {
	ctx := context.Background()

	Convey("Given a well formed run with its own rank column", t, func() {
		input := strings.Join([]string{
			"401 Q0 FBIS3-1 7 12.5 sysA",
			"401 Q0 FBIS3-2 3 11.0 sysA",
			"",
			"402\tQ0\tLA-9\t1\t-0.5\tsysA",
			"   ",
			"401 Q0 FBIS3-3 1 9 sysA",
		}, "\n")

		Convey("When it is read", func() {
			run, err := trec.Read(ctx, strings.NewReader(input), "a.run")

			Convey("Then ranks follow file order per topic", func() {
				So(err, ShouldBeNil)
				So(run.Path, ShouldEqual, "a.run")
				So(run.Name, ShouldEqual, "sysA")
				So(run.Len(), ShouldEqual, 4)
				So(run.Topics, ShouldResemble, []int{401, 402})
				So(run.MaxRank, ShouldEqual, 3)
				So(run.Entries[0], ShouldResemble, model.Entry{Topic: 401, DocID: "FBIS3-1", Rank: 1, Score: 12.5})
				So(run.Entries[1].Rank, ShouldEqual, 2)
				So(run.Entries[2], ShouldResemble, model.Entry{Topic: 402, DocID: "LA-9", Rank: 1, Score: -0.5})
				So(run.Entries[3].Rank, ShouldEqual, 3)
			})
		})
	})

	Convey("Given malformed input", t, func() {
		cases := []struct {
			name string
			line string
		}{
			{"too few columns", "401 Q0 d1 1 0.5"},
			{"too many columns", "401 Q0 d1 1 0.5 run extra"},
			{"a bad topic", "abc Q0 d1 1 0.5 run"},
			{"a bad score", "401 Q0 d1 1 high run"},
		}
		for _, tc := range cases {
			Convey("When the line has "+tc.name, func() {
				_, err := trec.Read(ctx, strings.NewReader("401 Q0 d0 1 1 run\n"+tc.line+"\n"), "bad.run")

				Convey("Then ErrMalformedLine names the file and line", func() {
					So(errors.Is(err, trec.ErrMalformedLine), ShouldBeTrue)
					So(err.Error(), ShouldContainSubstring, "bad.run:2")
				})
			})
		}
	})

	Convey("Given a line longer than the limit", t, func() {
		long := "401 Q0 " + strings.Repeat("x", trec.MaxLineLength) + " 1 0.5 run"

		Convey("Then ErrLineTooLong is returned", func() {
			_, err := trec.Read(ctx, strings.NewReader(long), "long.run")
			So(errors.Is(err, trec.ErrLineTooLong), ShouldBeTrue)
		})
	})

	Convey("Given a long line within the limit", t, func() {
		id := strings.Repeat("y", 200*1024)

		Convey("Then it is parsed", func() {
			run, err := trec.Read(ctx, strings.NewReader("1 Q0 "+id+" 1 0.5 run\n"), "wide.run")
			So(err, ShouldBeNil)
			So(run.Entries[0].DocID, ShouldEqual, id)
		})
	})

	Convey("Given an empty input", t, func() {
		run, err := trec.Read(ctx, strings.NewReader(""), "empty.run")

		Convey("Then the run has no entries", func() {
			So(err, ShouldBeNil)
			So(run.Len(), ShouldEqual, 0)
			So(run.Topics, ShouldBeEmpty)
		})
	})
}

func TestReadFile(t *testing.T) {
	Convey("Given a run on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "input.run")
		So(os.WriteFile(path, []byte("7 Q0 doc 1 1.0 r\n"), 0o600), ShouldBeNil)

		Convey("Then ReadFile parses it", func() {
			run, err := trec.ReadFile(context.Background(), path)
			So(err, ShouldBeNil)
			So(run.Topics, ShouldResemble, []int{7})
		})

		Convey("And a missing file is reported", func() {
			_, err := trec.ReadFile(context.Background(), filepath.Join(dir, "nope.run"))
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func TestWriter(t *testing.T) {
	Convey("Given fused rankings for two topics", t, func() {
		rankings := [][]model.Result{
			{
				{Topic: 1, DocID: "d1", Rank: 1, Score: 0.36},
				{Topic: 1, DocID: "d2", Rank: 2, Score: 0.359999},
			},
			{
				{Topic: 3, DocID: "x", Rank: 1, Score: 0.123456},
			},
		}

		Convey("When they are written", func() {
			var buf bytes.Buffer
			n, err := trec.WriteAll(&buf, "fused", rankings)

			Convey("Then each result is a TREC line with four decimals", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
				So(buf.String(), ShouldEqual,
					"1 Q0 d1 1 0.3600 fused\n"+
						"1 Q0 d2 2 0.3600 fused\n"+
						"3 Q0 x 1 0.1235 fused\n")
			})
		})

		Convey("When nothing is ranked", func() {
			var buf bytes.Buffer
			n, err := trec.WriteAll(&buf, "fused", [][]model.Result{{}, nil})

			Convey("Then no output is produced", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}
