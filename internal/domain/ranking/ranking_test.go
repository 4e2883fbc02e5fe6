package ranking_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
	ranking "github.com/tannerhall/bracketeer/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func byTeam(rankings []model.SeedingRanking, id uuid.UUID) model.SeedingRanking {
	for _, r := range rankings {
		if r.TeamID == id {
			return r
		}
	}
	So("team not found in rankings", ShouldBeEmpty)
	return model.SeedingRanking{}
}

func TestCalculate(t *testing.T) {
	Convey("Given recorded seeding-match scores", t, func() {
		Convey("When a team has three scores", func() {
			team := uuid.New()
			rankings := ranking.Calculate(ranking.TeamScores{team: {80, 100, 90}})

			Convey("Then the average covers the top two and the third breaks ties", func() {
				r := byTeam(rankings, team)
				So(*r.SeedAverage, ShouldAlmostEqual, 95)
				So(*r.Tiebreaker, ShouldAlmostEqual, 80)
			})
		})

		Convey("When a team has two scores", func() {
			team := uuid.New()
			rankings := ranking.Calculate(ranking.TeamScores{team: {100, 90}})

			Convey("Then the tiebreaker falls back to the score sum", func() {
				r := byTeam(rankings, team)
				So(*r.SeedAverage, ShouldAlmostEqual, 95)
				So(*r.Tiebreaker, ShouldAlmostEqual, 190)
			})
		})

		Convey("When a team has a single score", func() {
			team := uuid.New()
			rankings := ranking.Calculate(ranking.TeamScores{team: {70}})

			Convey("Then that score serves as both average and tiebreaker", func() {
				r := byTeam(rankings, team)
				So(*r.SeedAverage, ShouldAlmostEqual, 70)
				So(*r.Tiebreaker, ShouldAlmostEqual, 70)
			})
		})

		Convey("When a team has no scores", func() {
			scored, unscored := uuid.New(), uuid.New()
			rankings := ranking.Calculate(ranking.TeamScores{
				scored:   {50},
				unscored: {},
			})

			Convey("Then it is unranked and sorts last", func() {
				So(len(rankings), ShouldEqual, 2)
				So(rankings[0].TeamID, ShouldResemble, scored)
				So(rankings[1].TeamID, ShouldResemble, unscored)

				r := byTeam(rankings, unscored)
				So(r.SeedAverage, ShouldBeNil)
				So(r.SeedRank, ShouldBeNil)
				So(r.Tiebreaker, ShouldBeNil)
				So(r.RawSeedScore, ShouldBeNil)
			})

			Convey("Then the scored team still takes rank one", func() {
				r := byTeam(rankings, scored)
				So(*r.SeedRank, ShouldEqual, 1)
			})
		})

		Convey("When two teams tie on seed average", func() {
			twoScores := uuid.New()   // 100, 90 -> average 95, tiebreaker 190
			threeScores := uuid.New() // 100, 90, 80 -> average 95, tiebreaker 80
			rankings := ranking.Calculate(ranking.TeamScores{
				twoScores:   {100, 90},
				threeScores: {100, 90, 80},
			})

			Convey("Then the higher tiebreaker wins, even across the two fallbacks", func() {
				first := byTeam(rankings, twoScores)
				second := byTeam(rankings, threeScores)
				So(*first.SeedRank, ShouldEqual, 1)
				So(*second.SeedRank, ShouldEqual, 2)
			})
		})

		Convey("When teams tie on average and tiebreaker", func() {
			a, b := uuid.New(), uuid.New()
			rankings := ranking.Calculate(ranking.TeamScores{
				a: {90, 80, 70},
				b: {90, 80, 70},
			})

			Convey("Then team id breaks the tie deterministically", func() {
				So(len(rankings), ShouldEqual, 2)
				So(rankings[0].TeamID.String(), ShouldBeLessThan, rankings[1].TeamID.String())
			})
		})

		Convey("When computing the composite seed score", func() {
			top, mid, none := uuid.New(), uuid.New(), uuid.New()
			rankings := ranking.Calculate(ranking.TeamScores{
				top:  {100, 100},
				mid:  {50, 50},
				none: {},
			})

			Convey("Then the top seed scores a full 1.0", func() {
				r := byTeam(rankings, top)
				So(*r.RawSeedScore, ShouldAlmostEqual, 1.0)
			})

			Convey("Then lower seeds blend ordinal position and magnitude", func() {
				r := byTeam(rankings, mid)
				// rank 2 of 2 ranked: 0.75*(1/2) + 0.25*(50/100)
				So(*r.RawSeedScore, ShouldAlmostEqual, 0.5)
			})

			Convey("Then unranked teams never dilute the ordinal band", func() {
				r := byTeam(rankings, none)
				So(r.RawSeedScore, ShouldBeNil)
			})
		})

		Convey("When there are no scores at all", func() {
			rankings := ranking.Calculate(ranking.TeamScores{})

			Convey("Then the ranking is empty", func() {
				So(rankings, ShouldBeEmpty)
			})
		})
	})
}
