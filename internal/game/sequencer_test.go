package game

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/timer"
)

type recordingStage struct {
	requests []Request
	steps    []string
	finishes int
}

func (r *recordingStage) apply(_ context.Context, req Request) { r.requests = append(r.requests, req) }
func (r *recordingStage) entered(_ context.Context, s Step)    { r.steps = append(r.steps, s.Name) }
func (r *recordingStage) finished(context.Context)             { r.finishes++ }

func TestStepTable(t *testing.T) {
	Convey("Given the step table", t, func() {
		Convey("Then the reveal starts 3500ms in and the sequence lasts 6500ms", func() {
			So(RevealOffset(), ShouldEqual, 3500*time.Millisecond)
			So(SequenceDuration(), ShouldEqual, 6500*time.Millisecond)
		})

		Convey("Then the hold steps keep the public phase of their parent", func() {
			So(Steps[3].Name, ShouldEqual, "contracting-hold")
			So(Steps[3].Phase, ShouldEqual, model.PhaseContracting)
			So(Steps[5].Name, ShouldEqual, "fading-hold")
			So(Steps[5].Phase, ShouldEqual, model.PhaseFading)
		})

		Convey("Then the last step resets synchronously", func() {
			last := Steps[len(Steps)-1]
			So(last.Phase, ShouldEqual, model.PhaseResetting)
			So(last.Delay, ShouldEqual, time.Duration(0))
			So(last.Requests, ShouldResemble, []Request{RequestFullReset})
		})

		Convey("Then requests have readable names", func() {
			So(RequestHaptic.String(), ShouldEqual, "haptic")
			So(Request(0).String(), ShouldEqual, "unknown")
		})
	})
}

func TestSequencer(t *testing.T) {
	Convey("Given an idle sequencer", t, func() {
		clk := timer.NewManual()
		st := &recordingStage{}
		q := newSequencer(clk, st)
		ctx := context.Background()

		So(q.Running(), ShouldBeFalse)
		So(q.Phase(), ShouldEqual, model.PhaseWaiting)
		So(q.Step(), ShouldEqual, StepWaiting)

		Convey("When started", func() {
			So(q.Start(ctx), ShouldBeTrue)

			Convey("Then the first step is entered immediately", func() {
				So(q.Phase(), ShouldEqual, model.PhaseHidingLosers)
				So(st.steps, ShouldResemble, []string{"hiding-losers"})
				So(st.requests, ShouldResemble, []Request{RequestShowOnlyWinner})
				So(clk.Pending(), ShouldEqual, 1)
			})

			Convey("Then a second start is ignored", func() {
				So(q.Start(ctx), ShouldBeFalse)
				So(st.steps, ShouldHaveLength, 1)
				So(clk.Pending(), ShouldEqual, 1)
			})

			Convey("Then the steps follow in order and end in waiting", func() {
				clk.Advance(SequenceDuration())
				names := make([]string, len(Steps))
				for i, s := range Steps {
					names[i] = s.Name
				}
				So(st.steps, ShouldResemble, names)
				So(st.finishes, ShouldEqual, 1)
				So(q.Running(), ShouldBeFalse)
				So(q.Step(), ShouldEqual, StepWaiting)
				So(clk.Pending(), ShouldEqual, 0)
			})

			Convey("Then the hold step is distinguishable from its parent", func() {
				clk.Advance(1500 * time.Millisecond)
				So(q.Phase(), ShouldEqual, model.PhaseContracting)
				So(q.Step(), ShouldEqual, "contracting-hold")
			})

			Convey("When cancelled mid-sequence", func() {
				clk.Advance(1200 * time.Millisecond)
				So(q.Cancel(), ShouldBeTrue)

				Convey("Then nothing else runs", func() {
					clk.Advance(time.Minute)
					So(st.steps, ShouldResemble, []string{"hiding-losers", "expanding", "contracting"})
					So(st.finishes, ShouldEqual, 0)
					So(q.Phase(), ShouldEqual, model.PhaseWaiting)
					So(clk.Pending(), ShouldEqual, 0)
				})

				Convey("Then it can start again", func() {
					So(q.Start(ctx), ShouldBeTrue)
				})
			})
		})

		Convey("When cancelled while idle", func() {
			So(q.Cancel(), ShouldBeFalse)
		})
	})
}
