package bracket_test

import (
	"errors"
	"strconv"
	"testing"

	bracket "github.com/tannerhall/bracketeer/internal/domain/bracket"
	"github.com/tannerhall/bracketeer/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildTemplate(t *testing.T) {
	Convey("Given the double-elimination template builder", t, func() {
		Convey("When building templates for every supported size", func() {
			for _, size := range []int{4, 8, 16, 32, 64} {
				games, err := bracket.BuildTemplate(size)
				So(err, ShouldBeNil)

				Convey("Then a "+roundLabel(size)+" bracket should have 2*size-1 games", func() {
					So(len(games), ShouldEqual, 2*size-1)
				})

				Convey("Then "+roundLabel(size)+" game numbers should be unique and sequential", func() {
					for i, g := range games {
						So(g.GameNumber, ShouldEqual, i+1)
						So(g.BracketSize, ShouldEqual, size)
					}
				})

				Convey("Then every "+roundLabel(size)+" slot source should reference an earlier game", func() {
					for _, g := range games {
						for _, src := range []model.SlotSource{g.Team1Source, g.Team2Source} {
							if src.Kind == model.SourceSeed {
								So(src.Seed, ShouldBeBetweenOrEqual, 1, size)
								continue
							}
							if g.ResetGame {
								// The reset replays the grand final, the one
								// backward-looking reference in the graph.
								So(src.Game, ShouldEqual, g.GameNumber-1)
								continue
							}
							So(src.Game, ShouldBeLessThan, g.GameNumber)
						}
					}
				})

				Convey("Then every "+roundLabel(size)+" advancement edge should match a source reference", func() {
					byNumber := make(map[int]model.GameTemplate, len(games))
					for _, g := range games {
						byNumber[g.GameNumber] = g
					}
					for _, g := range games {
						if g.WinnerTo != nil {
							dest := byNumber[g.WinnerTo.Game]
							So(templateSource(dest, g.WinnerTo.Slot), ShouldResemble, model.WinnerSource(g.GameNumber))
						}
						if g.LoserTo != nil {
							dest := byNumber[g.LoserTo.Game]
							So(templateSource(dest, g.LoserTo.Slot), ShouldResemble, model.LoserSource(g.GameNumber))
						}
					}
				})
			}
		})

		Convey("When building the 4-team template", func() {
			games, err := bracket.BuildTemplate(4)

			Convey("Then the seven games should lay out in play order", func() {
				So(err, ShouldBeNil)
				So(len(games), ShouldEqual, 7)

				So(games[0].RoundName, ShouldEqual, "Winners Round 1")
				So(games[0].Team1Source, ShouldResemble, model.SeedSource(1))
				So(games[0].Team2Source, ShouldResemble, model.SeedSource(4))
				So(games[1].Team1Source, ShouldResemble, model.SeedSource(2))
				So(games[1].Team2Source, ShouldResemble, model.SeedSource(3))

				So(games[2].RoundName, ShouldEqual, "Losers Round 1")
				So(games[2].Side, ShouldEqual, model.SideLosers)
				So(games[2].Team1Source, ShouldResemble, model.LoserSource(1))
				So(games[2].Team2Source, ShouldResemble, model.LoserSource(2))

				So(games[3].RoundName, ShouldEqual, "Winners Final")
				So(games[3].Team1Source, ShouldResemble, model.WinnerSource(1))
				So(games[3].Team2Source, ShouldResemble, model.WinnerSource(2))

				So(games[4].RoundName, ShouldEqual, "Losers Final")
				So(games[4].Team1Source, ShouldResemble, model.WinnerSource(3))
				So(games[4].Team2Source, ShouldResemble, model.LoserSource(4))

				So(games[5].RoundName, ShouldEqual, "Grand Final")
				So(games[5].GrandFinal, ShouldBeTrue)
				So(games[5].Team1Source, ShouldResemble, model.WinnerSource(4))
				So(games[5].Team2Source, ShouldResemble, model.WinnerSource(5))

				So(games[6].RoundName, ShouldEqual, "Championship Reset")
				So(games[6].ResetGame, ShouldBeTrue)
				So(games[6].Team1Source, ShouldResemble, model.LoserSource(6))
				So(games[6].Team2Source, ShouldResemble, model.WinnerSource(6))
			})

			Convey("Then the reset game should be terminal", func() {
				So(err, ShouldBeNil)
				reset := games[len(games)-1]
				So(reset.WinnerTo, ShouldBeNil)
				So(reset.LoserTo, ShouldBeNil)
			})

			Convey("Then grand final results should route into the reset game", func() {
				So(err, ShouldBeNil)
				gf := games[5]
				So(gf.WinnerTo, ShouldResemble, &model.Advancement{Game: 7, Slot: model.Slot2})
				So(gf.LoserTo, ShouldResemble, &model.Advancement{Game: 7, Slot: model.Slot1})
			})
		})

		Convey("When building the 16-team template", func() {
			games, err := bracket.BuildTemplate(16)

			Convey("Then winners and losers rounds should halve as expected", func() {
				So(err, ShouldBeNil)
				So(countRound(games, "Winners Round 1"), ShouldEqual, 8)
				So(countRound(games, "Losers Round 1"), ShouldEqual, 4)
				So(countRound(games, "Winners Round 2"), ShouldEqual, 4)
				So(countRound(games, "Losers Round 2"), ShouldEqual, 4)
				So(countRound(games, "Losers Round 3"), ShouldEqual, 2)
				So(countRound(games, "Winners Round 3"), ShouldEqual, 2)
				So(countRound(games, "Losers Round 4"), ShouldEqual, 2)
				So(countRound(games, "Losers Round 5"), ShouldEqual, 1)
				So(countRound(games, "Winners Final"), ShouldEqual, 1)
				So(countRound(games, "Losers Final"), ShouldEqual, 1)
				So(countRound(games, "Grand Final"), ShouldEqual, 1)
				So(countRound(games, "Championship Reset"), ShouldEqual, 1)
			})

			Convey("Then every winners-bracket loss should drop into the losers bracket", func() {
				So(err, ShouldBeNil)
				for _, g := range games {
					if g.Side != model.SideWinners {
						continue
					}
					So(g.LoserTo, ShouldNotBeNil)
					So(games[g.LoserTo.Game-1].Side, ShouldEqual, model.SideLosers)
				}
			})
		})

		Convey("When building a template for an unsupported size", func() {
			for _, size := range []int{0, 2, 3, 6, 12, 128} {
				_, err := bracket.BuildTemplate(size)

				Convey("Then size "+roundLabel(size)+" should be rejected", func() {
					So(errors.Is(err, bracket.ErrUnsupportedSize), ShouldBeTrue)
				})
			}
		})
	})
}

func countRound(games []model.GameTemplate, name string) int {
	n := 0
	for _, g := range games {
		if g.RoundName == name {
			n++
		}
	}
	return n
}

func templateSource(t model.GameTemplate, slot model.Slot) model.SlotSource {
	if slot == model.Slot1 {
		return t.Team1Source
	}
	return t.Team2Source
}

func roundLabel(size int) string {
	return "size-" + strconv.Itoa(size)
}
