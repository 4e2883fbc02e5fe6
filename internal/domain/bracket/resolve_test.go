package bracket_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	bracket "github.com/tannerhall/bracketeer/internal/domain/bracket"
	"github.com/tannerhall/bracketeer/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given a 4-team bracket with one bye", t, func() {
		teams := seedTeams(3) // seed 4 is a bye
		games := mustInstantiate(4, teams)

		Convey("When resolving the fresh bracket", func() {
			resolved, err := bracket.Resolve(games)

			Convey("Then the bye winner should advance into the winners final", func() {
				So(err, ShouldBeNil)
				wf := gameByNumber(resolved, 4)
				So(wf.Team1ID, ShouldNotBeNil)
				So(*wf.Team1ID, ShouldResemble, teams[0])
				So(wf.Status, ShouldEqual, model.StatusPending)
			})

			Convey("Then the losers opener should wait for a real loser", func() {
				So(err, ShouldBeNil)
				l1 := gameByNumber(resolved, 3)
				So(l1.Status, ShouldEqual, model.StatusPending)
				So(l1.Team1ID, ShouldBeNil)
				So(l1.Team2ID, ShouldBeNil)
			})

			Convey("Then the input snapshot should be untouched", func() {
				So(err, ShouldBeNil)
				wf := gameByNumber(games, 4)
				So(wf.Team1ID, ShouldBeNil)
			})

			Convey("Then resolving again should change nothing", func() {
				So(err, ShouldBeNil)
				again, err := bracket.Resolve(resolved)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, resolved)
			})
		})
	})

	Convey("Given a 4-team bracket where only two teams entered", t, func() {
		teams := seedTeams(2) // seeds 3 and 4 are byes
		games := mustInstantiate(4, teams)

		Convey("When resolving the fresh bracket", func() {
			resolved, err := bracket.Resolve(games)

			Convey("Then both bye winners should meet in the winners final", func() {
				So(err, ShouldBeNil)
				wf := gameByNumber(resolved, 4)
				So(wf.Status, ShouldEqual, model.StatusReady)
				So(*wf.Team1ID, ShouldResemble, teams[0])
				So(*wf.Team2ID, ShouldResemble, teams[1])
			})

			Convey("Then the losers opener, fed only by byes, should stay pending", func() {
				So(err, ShouldBeNil)
				l1 := gameByNumber(resolved, 3)
				So(l1.Status, ShouldEqual, model.StatusPending)
				So(l1.Team1ID, ShouldBeNil)
				So(l1.Team2ID, ShouldBeNil)
				So(l1.WinnerID, ShouldBeNil)
			})
		})
	})

	Convey("Given a game whose advancement edge points nowhere", t, func() {
		winner := uuid.New()
		games := []model.Game{{
			GameNumber: 1,
			Status:     model.StatusCompleted,
			WinnerID:   &winner,
			WinnerTo:   &model.Advancement{Game: 99, Slot: model.Slot1},
		}}

		Convey("When resolving", func() {
			_, err := bracket.Resolve(games)

			Convey("Then the dangling edge should be reported", func() {
				So(errors.Is(err, bracket.ErrGameNotFound), ShouldBeTrue)
			})
		})
	})
}
