package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	service "github.com/okian/choozi/internal/app"
	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func inPhase(svc *service.Service, step string) func() bool {
	return func() bool { return svc.Snapshot().Step == step }
}

func begin(batch string, touches ...model.Touch) model.TouchEvent {
	return model.TouchEvent{BatchID: batch, Kind: model.TouchBegin, Touches: touches}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report a waiting session before start", func() {
			snap := svc.Snapshot()
			So(snap.Phase, ShouldEqual, model.PhaseWaiting)
			So(snap.Flags.TouchAccepting, ShouldBeTrue)
			So(snap.Flags.SoundEnabled, ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then calls that need the loop should fail", func() {
			ctx := context.Background()
			So(errors.Is(svc.Ingest(ctx, begin("b1", model.Touch{ID: "a"})), service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(svc.Reset(ctx), service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(svc.SetSoundEnabled(ctx, false), service.ErrNotStarted), ShouldBeTrue)
			_, _, err := svc.Subscribe()
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.DrainEffects(ctx, 0), ShouldBeEmpty)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithInboxSize(8),
			service.WithOutboxSize(4),
			service.WithDedupeSize(16),
			service.WithSoundEnabled(false),
			service.WithHapticsEnabled(false),
			service.WithClock(clock.NewMock()),
			service.WithLogger(logger.Get()),
		)

		Convey("Then the options should be reflected in stats", func() {
			stats := svc.GetStats()
			So(stats["inboxSize"], ShouldEqual, 8)
			So(stats["outboxSize"], ShouldEqual, 4)
			So(stats["dedupeSize"], ShouldEqual, 16)
			So(stats["sound"], ShouldEqual, false)
			So(stats["haptics"], ShouldEqual, false)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithClock(clock.NewMock()), service.WithInboxSize(32), service.WithOutboxSize(4))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["phase"], ShouldEqual, "waiting")
			})

			Convey("Then stats report the live queue capacities", func() {
				stats := svc.GetStats()
				So(stats["inboxCapacity"], ShouldEqual, 32)
				So(stats["outboxCapacity"], ShouldEqual, 4)
			})

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("Then the loop survives the start context", func() {
				cancel()
				So(svc.Ingest(context.Background(), begin("b1", model.Touch{ID: "a", X: 1, Y: 1})), ShouldBeNil)
				So(eventually(func() bool { return len(svc.Snapshot().Contacts) == 1 }), ShouldBeTrue)
			})

			Convey("When stopping the service", func() {
				svc.Stop()

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldEqual, false)
					So(errors.Is(svc.Reset(ctx), service.ErrNotStarted), ShouldBeTrue)
				})

				Convey("Then stopping again is harmless", func() {
					So(func() { svc.Stop() }, ShouldNotPanic)
				})
			})
		})
	})
}

func TestService_Ingest(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithClock(clock.NewMock()))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a batch has an unknown kind", func() {
			err := svc.Ingest(ctx, model.TouchEvent{BatchID: "b1", Kind: "tap"})

			Convey("Then it is rejected as invalid", func() {
				So(errors.Is(err, service.ErrInvalidEvent), ShouldBeTrue)
			})
		})

		Convey("When the same batch is delivered twice", func() {
			ev := begin("b1", model.Touch{ID: "a", X: 10, Y: 10})
			So(svc.Ingest(ctx, ev), ShouldBeNil)
			err := svc.Ingest(ctx, ev)

			Convey("Then the retry is reported as a duplicate and applied once", func() {
				So(errors.Is(err, service.ErrDuplicate), ShouldBeTrue)
				So(eventually(func() bool { return len(svc.Snapshot().Contacts) == 1 }), ShouldBeTrue)
				So(svc.Snapshot().PaletteCursor, ShouldEqual, 1)
			})
		})

		Convey("When batches without ids arrive", func() {
			So(svc.Ingest(ctx, begin("", model.Touch{ID: "a", X: 1, Y: 1})), ShouldBeNil)
			So(svc.Ingest(ctx, begin("", model.Touch{ID: "b", X: 2, Y: 2})), ShouldBeNil)

			Convey("Then they are not deduplicated", func() {
				So(eventually(func() bool { return len(svc.Snapshot().Contacts) == 2 }), ShouldBeTrue)
			})
		})
	})
}

func TestService_Round(t *testing.T) {
	Convey("Given a started service on a mock clock", t, func() {
		mock := clock.NewMock()
		svc := service.New(service.WithClock(mock))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		So(svc.Ingest(ctx, begin("b1", model.Touch{ID: "a", X: 100, Y: 500})), ShouldBeNil)
		So(eventually(func() bool { return len(svc.Snapshot().Contacts) == 1 }), ShouldBeTrue)

		Convey("When the round plays out", func() {
			steps := []struct {
				advance time.Duration
				step    string
			}{
				{2000 * time.Millisecond, "hiding-losers"},
				{500 * time.Millisecond, "expanding"},
				{500 * time.Millisecond, "contracting"},
				{500 * time.Millisecond, "contracting-hold"},
				{500 * time.Millisecond, "fading"},
				{500 * time.Millisecond, "fading-hold"},
				{1000 * time.Millisecond, "revealing"},
				{3000 * time.Millisecond, "waiting"},
			}
			for _, st := range steps {
				mock.Add(st.advance)
				So(eventually(inPhase(svc, st.step)), ShouldBeTrue)
			}

			Convey("Then the haptic and sound requests are in the outbox", func() {
				effects := svc.DrainEffects(ctx, 0)
				So(effects, ShouldHaveLength, 2)
				So(effects[0].Kind, ShouldEqual, model.EffectHaptic)
				So(effects[1].Kind, ShouldEqual, model.EffectRevealSound)
				So(effects[0].RoundID, ShouldNotBeEmpty)
				So(effects[1].RoundID, ShouldEqual, effects[0].RoundID)
				So(svc.DrainEffects(ctx, 0), ShouldBeEmpty)
			})

			Convey("Then the session is empty again", func() {
				snap := svc.Snapshot()
				So(snap.Contacts, ShouldBeEmpty)
				So(snap.PaletteCursor, ShouldEqual, 0)
				So(snap.Winner, ShouldBeNil)
			})
		})

		Convey("When reset mid-round", func() {
			mock.Add(2000 * time.Millisecond)
			So(eventually(inPhase(svc, "hiding-losers")), ShouldBeTrue)
			So(svc.Reset(ctx), ShouldBeNil)

			Convey("Then the session is waiting as soon as Reset returns", func() {
				snap := svc.Snapshot()
				So(snap.Phase, ShouldEqual, model.PhaseWaiting)
				So(snap.Contacts, ShouldBeEmpty)
				So(snap.Winner, ShouldBeNil)
			})

			Convey("Then no later step runs", func() {
				mock.Add(time.Minute)
				time.Sleep(20 * time.Millisecond)
				So(svc.Snapshot().Phase, ShouldEqual, model.PhaseWaiting)
				So(svc.DrainEffects(ctx, 0), ShouldBeEmpty)
			})
		})

		Convey("When the service stops mid-round", func() {
			mock.Add(2000 * time.Millisecond)
			So(eventually(inPhase(svc, "hiding-losers")), ShouldBeTrue)
			svc.Stop()

			Convey("Then the last published state is an empty waiting session", func() {
				snap := svc.Snapshot()
				So(snap.Phase, ShouldEqual, model.PhaseWaiting)
				So(snap.Contacts, ShouldBeEmpty)
			})
		})
	})
}

func TestService_Effects(t *testing.T) {
	Convey("Given haptics disabled and sound toggled off at runtime", t, func() {
		mock := clock.NewMock()
		svc := service.New(service.WithClock(mock), service.WithHapticsEnabled(false))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		So(svc.SetSoundEnabled(ctx, false), ShouldBeNil)
		So(eventually(func() bool { return !svc.Snapshot().Flags.SoundEnabled }), ShouldBeTrue)

		Convey("When a round reaches the reveal", func() {
			So(svc.Ingest(ctx, begin("b1", model.Touch{ID: "a", X: 1, Y: 1})), ShouldBeNil)
			So(eventually(func() bool { return len(svc.Snapshot().Contacts) == 1 }), ShouldBeTrue)
			mock.Add(2000 * time.Millisecond)
			So(eventually(inPhase(svc, "hiding-losers")), ShouldBeTrue)
			for _, st := range []string{"expanding", "contracting", "contracting-hold", "fading", "fading-hold"} {
				mock.Add(500 * time.Millisecond)
				So(eventually(inPhase(svc, st)), ShouldBeTrue)
			}
			mock.Add(1000 * time.Millisecond)
			So(eventually(inPhase(svc, "revealing")), ShouldBeTrue)

			Convey("Then nothing reaches the outbox", func() {
				So(svc.DrainEffects(ctx, 10), ShouldBeEmpty)
			})
		})
	})
}

func TestService_Subscribe(t *testing.T) {
	Convey("Given a subscriber", t, func() {
		svc := service.New(service.WithClock(clock.NewMock()))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		updates, cancel, err := svc.Subscribe()
		So(err, ShouldBeNil)
		defer cancel()

		Convey("Then it first receives the current state", func() {
			snap := <-updates
			So(snap.Phase, ShouldEqual, model.PhaseWaiting)
		})

		Convey("When a contact is added", func() {
			<-updates
			So(svc.Ingest(ctx, begin("b1", model.Touch{ID: "a", X: 1, Y: 1})), ShouldBeNil)

			Convey("Then the change is pushed", func() {
				select {
				case snap := <-updates:
					So(snap.Contacts, ShouldHaveLength, 1)
				case <-time.After(2 * time.Second):
					So("no snapshot pushed", ShouldBeEmpty)
				}
			})
		})

		Convey("When the subscription is cancelled", func() {
			cancel()
			<-updates

			Convey("Then the channel is closed", func() {
				_, open := <-updates
				So(open, ShouldBeFalse)
			})
		})
	})
}
