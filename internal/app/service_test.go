package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	repository "github.com/tannerhall/bracketeer/internal/adapters/repository"
	app "github.com/tannerhall/bracketeer/internal/app"
	bracket "github.com/tannerhall/bracketeer/internal/domain/bracket"
	"github.com/tannerhall/bracketeer/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func startedService(t *testing.T) (*app.Service, repository.Store) {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), "service.db"))
	So(err, ShouldBeNil)
	So(repository.Migrate(db), ShouldBeNil)
	store := repository.NewSQLiteStore(db)

	svc := app.New(
		app.WithStore(store),
		app.WithWorkerCount(2),
		app.WithQueueSize(64),
		app.WithDedupeSize(128),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	t.Cleanup(svc.Stop)
	return svc, store
}

// seedField registers n teams and records enough scores to rank them, with
// team i seeded above team i+1.
func seedField(ctx context.Context, svc *app.Service, store repository.Store, n int) []uuid.UUID {
	teams := make([]uuid.UUID, n)
	for i := range teams {
		teams[i] = uuid.New()
		So(svc.RegisterTeam(ctx, teams[i], "Team "+teams[i].String()[:8]), ShouldBeNil)
		base := float64(100 - 10*i)
		So(store.InsertSeedScore(ctx, teams[i], base), ShouldBeNil)
		So(store.InsertSeedScore(ctx, teams[i], base-5), ShouldBeNil)
	}
	return teams
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service without a store", t, func() {
		svc := app.New()

		Convey("When starting", func() {
			err := svc.Start(context.Background())

			Convey("Then startup is refused", func() {
				So(errors.Is(err, app.ErrNoStore), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc, _ := startedService(t)

		Convey("When starting again", func() {
			err := svc.Start(ctx)

			Convey("Then the second start is a no-op", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When asking for stats", func() {
			stats := svc.GetStats()

			Convey("Then the running shape is reported", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 64)
			})
		})
	})
}

func TestServiceScoresAndRankings(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc, store := startedService(t)

		Convey("When submitting a score report", func() {
			team := uuid.New()
			So(svc.RegisterTeam(ctx, team, "Solo"), ShouldBeNil)
			report := model.ScoreReport{ReportID: "r-1", TeamID: team, Score: 88}

			accepted, duplicate := svc.SubmitScore(ctx, report)

			Convey("Then the report is accepted", func() {
				So(accepted, ShouldBeTrue)
				So(duplicate, ShouldBeFalse)
			})

			Convey("Then a retry with the same report id is flagged duplicate", func() {
				accepted, duplicate = svc.SubmitScore(ctx, report)
				So(accepted, ShouldBeTrue)
				So(duplicate, ShouldBeTrue)
			})

			Convey("Then a worker eventually records the score", func() {
				recorded := func() bool {
					scores, err := store.SeedScores(ctx)
					return err == nil && len(scores[team]) == 1
				}
				deadline := time.Now().Add(2 * time.Second)
				for !recorded() && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(recorded(), ShouldBeTrue)
			})
		})

		Convey("When ranking a seeded field", func() {
			teams := seedField(ctx, svc, store, 3)
			rankings, err := svc.Rankings(ctx)

			Convey("Then teams rank by their top-two average", func() {
				So(err, ShouldBeNil)
				So(len(rankings), ShouldEqual, 3)
				So(rankings[0].TeamID, ShouldEqual, teams[0].String())
				So(*rankings[0].SeedRank, ShouldEqual, 1)
				So(*rankings[0].SeedAverage, ShouldAlmostEqual, 97.5)
				So(rankings[2].TeamID, ShouldEqual, teams[2].String())
			})
		})
	})
}

func TestServiceBrackets(t *testing.T) {
	Convey("Given a started service with four ranked teams", t, func() {
		ctx := context.Background()
		svc, store := startedService(t)
		teams := seedField(ctx, svc, store, 4)

		Convey("When creating a 4-team bracket", func() {
			view, err := svc.CreateBracket(ctx, "Finals", 4)

			Convey("Then the snapshot has the full game graph", func() {
				So(err, ShouldBeNil)
				So(view.Name, ShouldEqual, "Finals")
				So(view.Size, ShouldEqual, 4)
				So(len(view.Games), ShouldEqual, 7)
				So(view.Games[0].Status, ShouldEqual, "ready")
				So(view.Games[0].Team1ID, ShouldEqual, teams[0].String())
			})

			Convey("And fetching it returns the same snapshot", func() {
				So(err, ShouldBeNil)
				id := uuid.MustParse(view.BracketID)
				fetched, err := svc.Bracket(ctx, id)
				So(err, ShouldBeNil)
				So(fetched, ShouldResemble, view)
			})

			Convey("And recording a result advances the bracket", func() {
				So(err, ShouldBeNil)
				id := uuid.MustParse(view.BracketID)
				updated, err := svc.RecordResult(ctx, id, 1, teams[0], nil)
				So(err, ShouldBeNil)
				So(updated.Games[0].Status, ShouldEqual, "completed")
				So(updated.Games[0].WinnerID, ShouldEqual, teams[0].String())
				// Winner moves into the winners final.
				So(updated.Games[3].Team1ID, ShouldEqual, teams[0].String())

				Convey("And the advancement is persisted", func() {
					fetched, err := svc.Bracket(ctx, id)
					So(err, ShouldBeNil)
					So(fetched.Games[0].Status, ShouldEqual, "completed")
				})

				Convey("And replaying the result is rejected", func() {
					_, err := svc.RecordResult(ctx, id, 1, teams[0], nil)
					So(errors.Is(err, bracket.ErrAlreadyCompleted), ShouldBeTrue)
				})
			})

			Convey("And re-resolving byes leaves a fully seeded bracket alone", func() {
				So(err, ShouldBeNil)
				id := uuid.MustParse(view.BracketID)
				resolved, err := svc.ResolveByes(ctx, id)
				So(err, ShouldBeNil)
				So(resolved, ShouldResemble, view)
			})
		})

		Convey("When creating a bracket of an unsupported size", func() {
			_, err := svc.CreateBracket(ctx, "Broken", 6)

			Convey("Then the size is rejected", func() {
				So(errors.Is(err, bracket.ErrUnsupportedSize), ShouldBeTrue)
			})
		})

		Convey("When recording a result for an unknown bracket", func() {
			_, err := svc.RecordResult(ctx, uuid.New(), 1, teams[0], nil)

			Convey("Then not-found is reported", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service with no ranked teams", t, func() {
		ctx := context.Background()
		svc, _ := startedService(t)

		Convey("When creating a bracket", func() {
			_, err := svc.CreateBracket(ctx, "Empty", 4)

			Convey("Then seeding fails for lack of ranked teams", func() {
				So(errors.Is(err, bracket.ErrInvalidEntry), ShouldBeTrue)
			})
		})
	})
}

func TestServiceTemplateCache(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startedService(t)

		Convey("When requesting the same template twice", func() {
			first, err1 := svc.Template(8)
			second, err2 := svc.Template(8)

			Convey("Then both calls return the identical cached value", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(len(first), ShouldEqual, 15)
				So(&first[0], ShouldEqual, &second[0])
			})
		})
	})
}
