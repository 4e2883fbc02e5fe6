package bracket_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/uuid"

	bracket "github.com/tannerhall/bracketeer/internal/domain/bracket"
	"github.com/tannerhall/bracketeer/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// seedTeams returns one team id per seed position, index 0 holding seed 1.
func seedTeams(n int) []uuid.UUID {
	teams := make([]uuid.UUID, n)
	for i := range teams {
		teams[i] = uuid.New()
	}
	return teams
}

// entriesFor seeds the given teams into positions 1..len(teams) and declares
// the remaining positions byes.
func entriesFor(size int, teams []uuid.UUID) []model.Entry {
	entries := make([]model.Entry, 0, size)
	for pos := 1; pos <= size; pos++ {
		if pos <= len(teams) {
			entries = append(entries, model.Entry{SeedPosition: pos, TeamID: teams[pos-1]})
			continue
		}
		entries = append(entries, model.Entry{SeedPosition: pos, Bye: true})
	}
	return entries
}

func mustInstantiate(size int, teams []uuid.UUID) []model.Game {
	template, err := bracket.BuildTemplate(size)
	So(err, ShouldBeNil)
	games, err := bracket.Instantiate(template, entriesFor(size, teams))
	So(err, ShouldBeNil)
	return games
}

func gameByNumber(games []model.Game, n int) model.Game {
	for _, g := range games {
		if g.GameNumber == n {
			return g
		}
	}
	So("game "+strconv.Itoa(n)+" not found", ShouldBeEmpty)
	return model.Game{}
}

func TestInstantiate(t *testing.T) {
	Convey("Given an 8-team template", t, func() {
		template, err := bracket.BuildTemplate(8)
		So(err, ShouldBeNil)

		Convey("When instantiating with a full field", func() {
			teams := seedTeams(8)
			games, err := bracket.Instantiate(template, entriesFor(8, teams))

			Convey("Then round one should be ready and everything else pending", func() {
				So(err, ShouldBeNil)
				So(len(games), ShouldEqual, 15)
				for _, g := range games {
					if g.RoundNumber == 1 {
						So(g.Status, ShouldEqual, model.StatusReady)
						So(g.Team1ID, ShouldNotBeNil)
						So(g.Team2ID, ShouldNotBeNil)
						continue
					}
					So(g.Status, ShouldEqual, model.StatusPending)
					So(g.Team1ID, ShouldBeNil)
					So(g.Team2ID, ShouldBeNil)
				}
			})

			Convey("Then round one should pair seeds per the seeding order", func() {
				So(err, ShouldBeNil)
				g1 := gameByNumber(games, 1)
				So(*g1.Team1ID, ShouldResemble, teams[0]) // seed 1
				So(*g1.Team2ID, ShouldResemble, teams[7]) // seed 8
			})
		})

		Convey("When instantiating with byes in the low seeds", func() {
			teams := seedTeams(6)
			games, err := bracket.Instantiate(template, entriesFor(8, teams))

			Convey("Then the bye games should complete in favor of the seeded team", func() {
				So(err, ShouldBeNil)
				// Seed order 1,8,4,5,2,7,3,6: seeds 7 and 8 are byes.
				g1 := gameByNumber(games, 1) // 1 v 8
				So(g1.Status, ShouldEqual, model.StatusBye)
				So(g1.WinnerID, ShouldNotBeNil)
				So(*g1.WinnerID, ShouldResemble, teams[0])
				So(g1.LoserID, ShouldBeNil)

				g3 := gameByNumber(games, 3) // 2 v 7
				So(g3.Status, ShouldEqual, model.StatusBye)
				So(*g3.WinnerID, ShouldResemble, teams[1])

				g2 := gameByNumber(games, 2) // 4 v 5
				So(g2.Status, ShouldEqual, model.StatusReady)
			})
		})

		Convey("When two byes would meet in one game", func() {
			teams := seedTeams(3) // seeds 4 and 5 both byes, paired in round one
			_, err := bracket.Instantiate(template, entriesFor(8, teams))

			Convey("Then instantiation should be rejected", func() {
				So(errors.Is(err, bracket.ErrInvalidEntry), ShouldBeTrue)
			})
		})

		Convey("When the entry list is the wrong length", func() {
			entries := entriesFor(8, seedTeams(8))[:7]
			_, err := bracket.Instantiate(template, entries)

			Convey("Then instantiation should be rejected", func() {
				So(errors.Is(err, bracket.ErrInvalidEntry), ShouldBeTrue)
			})
		})

		Convey("When two entries claim the same seed position", func() {
			entries := entriesFor(8, seedTeams(8))
			entries[1].SeedPosition = 1
			_, err := bracket.Instantiate(template, entries)

			Convey("Then instantiation should be rejected", func() {
				So(errors.Is(err, bracket.ErrInvalidEntry), ShouldBeTrue)
			})
		})

		Convey("When a bye entry carries a team id", func() {
			entries := entriesFor(8, seedTeams(8))
			entries[7].Bye = true
			_, err := bracket.Instantiate(template, entries)

			Convey("Then instantiation should be rejected", func() {
				So(errors.Is(err, bracket.ErrInvalidEntry), ShouldBeTrue)
			})
		})
	})
}

func TestEntriesFromRankings(t *testing.T) {
	Convey("Given a computed seeding ranking", t, func() {
		rank := func(teamID uuid.UUID, r int) model.SeedingRanking {
			avg := 100.0 - float64(r)
			return model.SeedingRanking{TeamID: teamID, SeedRank: &r, SeedAverage: &avg}
		}

		Convey("When six teams are ranked for an 8-slot bracket", func() {
			teams := seedTeams(6)
			rankings := make([]model.SeedingRanking, 0, 7)
			for i, id := range teams {
				rankings = append(rankings, rank(id, i+1))
			}
			// Unranked teams never occupy a seed.
			rankings = append(rankings, model.SeedingRanking{TeamID: uuid.New()})

			entries, err := bracket.EntriesFromRankings(rankings, 8)

			Convey("Then ranked teams should fill seeds in rank order, byes after", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 8)
				for i := 0; i < 6; i++ {
					So(entries[i].SeedPosition, ShouldEqual, i+1)
					So(entries[i].TeamID, ShouldResemble, teams[i])
					So(entries[i].Bye, ShouldBeFalse)
				}
				So(entries[6].Bye, ShouldBeTrue)
				So(entries[7].Bye, ShouldBeTrue)
			})
		})

		Convey("When the rankings arrive out of rank order", func() {
			teams := seedTeams(4)
			rankings := []model.SeedingRanking{
				rank(teams[2], 3),
				rank(teams[0], 1),
				rank(teams[3], 4),
				rank(teams[1], 2),
			}

			entries, err := bracket.EntriesFromRankings(rankings, 4)

			Convey("Then seed positions should still follow rank", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 4)
				for i := 0; i < 4; i++ {
					So(entries[i].SeedPosition, ShouldEqual, i+1)
					So(entries[i].TeamID, ShouldResemble, teams[i])
				}
			})
		})

		Convey("When more teams are ranked than the bracket holds", func() {
			teams := seedTeams(6)
			rankings := make([]model.SeedingRanking, 0, 6)
			for i, id := range teams {
				rankings = append(rankings, rank(id, i+1))
			}

			entries, err := bracket.EntriesFromRankings(rankings, 4)

			Convey("Then only the top seeds should make the field", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 4)
				for i := 0; i < 4; i++ {
					So(entries[i].TeamID, ShouldResemble, teams[i])
				}
			})
		})

		Convey("When fewer than two teams are ranked", func() {
			rankings := []model.SeedingRanking{rank(uuid.New(), 1)}
			_, err := bracket.EntriesFromRankings(rankings, 4)

			Convey("Then the bracket cannot be seeded", func() {
				So(errors.Is(err, bracket.ErrInvalidEntry), ShouldBeTrue)
			})
		})

		Convey("When the size is unsupported", func() {
			_, err := bracket.EntriesFromRankings(nil, 5)

			Convey("Then the size should be rejected", func() {
				So(errors.Is(err, bracket.ErrUnsupportedSize), ShouldBeTrue)
			})
		})
	})
}
