// cmd/botsim plays all-bot games from consecutive seeds and checks the table
// stays consistent after every move.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
)

type simResult struct {
	seed       int64
	winner     string
	turns      int
	reshuffles int
	shortfall  int
	err        error
	wrapperOK  bool
}

func main() {
	games := flag.Int("games", 20, "number of games to play")
	firstSeed := flag.Int64("seed", 1, "seed of the first game")
	players := flag.Int("players", 4, "bots per game")
	stacking := flag.String("stacking", string(game.StackingAny), "stacking policy: any or same_face")
	opening := flag.String("opening", string(game.OpeningReturn), "opening discard policy: return or burn")
	flag.Parse()

	rules := game.DefaultHouseRules()
	rules.Stacking = game.StackingPolicy(*stacking)
	rules.OpeningDiscard = game.OpeningPolicy(*opening)
	rules.BotDelayMs = 0
	if err := rules.Validate(); err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}

	seats := make([]models.SeatSpec, *players)
	for i := range seats {
		seats[i] = models.SeatSpec{ID: fmt.Sprintf("bot_%d", i), Name: fmt.Sprintf("Bot %d", i+1), IsBot: true}
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	store := game.NewGameStore(game.Options{Rules: rules, Logger: logger})

	bar, _ := pterm.DefaultProgressbar.WithTotal(*games).WithTitle("Simulating").Start()
	results := make([]simResult, 0, *games)
	for i := 0; i < *games; i++ {
		seed := *firstSeed + int64(i)
		res := simulate(seats, rules, seed)
		if res.err == nil {
			res.wrapperOK = crossCheck(store, seats, seed, res.winner)
		}
		results = append(results, res)
		bar.Increment()
	}
	_, _ = bar.Stop()

	failed := render(results, seats)
	if failed > 0 {
		pterm.Error.Printfln("%d of %d games broke an invariant", failed, len(results))
		os.Exit(1)
	}
	pterm.Success.Printfln("%d games, every move kept all %d cards on the table", len(results), game.DeckSize)
}

// simulate drives the pure engine move by move.
func simulate(seats []models.SeatSpec, rules game.HouseRules, seed int64) simResult {
	res := simResult{seed: seed}
	s, err := game.Start(uuid.New(), "botsim", seats, rules, seed)
	if err != nil {
		res.err = err
		return res
	}
	for steps := 0; !s.Over; steps++ {
		if steps > game.DefaultMaxCascadeSteps {
			res.err = game.ErrCascadeLimit
			return res
		}
		for _, in := range game.BotTurn(s) {
			next, out, err := game.Apply(s, in)
			if err != nil {
				res.err = err
				return res
			}
			if n := next.CardCount(); n != game.DeckSize {
				res.err = fmt.Errorf("card count %d after %s by %s", n, in.Type, in.SeatID)
				return res
			}
			if next.Version != s.Version+1 {
				res.err = fmt.Errorf("version jumped from %d to %d", s.Version, next.Version)
				return res
			}
			res.reshuffles += out.Reshuffles
			res.shortfall += out.Shortfall
			if in.Type != game.IntentDeclareLowHand {
				res.turns++
			}
			s = next
			if s.Over {
				break
			}
		}
	}
	res.winner = s.WinnerID
	return res
}

// crossCheck replays the seed through the game wrapper, where an all-bot table
// settles inside Start, and reports whether it reaches the same winner.
func crossCheck(store *game.GameStore, seats []models.SeatSpec, seed int64, winner string) bool {
	opts := store.Defaults
	opts.Seed = seed
	g, err := store.Launch(context.Background(), game.NewGame("botsim", seats, opts))
	if err != nil {
		return false
	}
	defer store.DeleteGame(g.ID)
	view := g.Snapshot("")
	return view.Over && view.WinnerID == winner
}

func render(results []simResult, seats []models.SeatSpec) int {
	names := make(map[string]string, len(seats))
	for _, s := range seats {
		names[s.ID] = s.Name
	}

	data := pterm.TableData{{"Seed", "Winner", "Turns", "Reshuffles", "Shortfall", "Replay"}}
	wins := make(map[string]int)
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			data = append(data, []string{strconv.FormatInt(r.seed, 10), pterm.LightRed(r.err.Error()), "", "", "", ""})
			continue
		}
		wins[r.winner]++
		replay := pterm.LightGreen("same")
		if !r.wrapperOK {
			replay = pterm.LightRed("differs")
			failed++
		}
		data = append(data, []string{
			strconv.FormatInt(r.seed, 10),
			pterm.LightCyan(names[r.winner]),
			strconv.Itoa(r.turns),
			strconv.Itoa(r.reshuffles),
			strconv.Itoa(r.shortfall),
			replay,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	ids := make([]string, 0, len(wins))
	for id := range wins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var bars pterm.Bars
	for _, id := range ids {
		bars = append(bars, pterm.Bar{Label: names[id], Value: wins[id]})
	}
	if len(bars) > 0 {
		pterm.DefaultSection.Println("Wins per seat")
		_ = pterm.DefaultBarChart.WithBars(bars).WithHorizontal().WithShowValue().Render()
	}
	return failed
}
