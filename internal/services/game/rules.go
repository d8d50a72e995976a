package game

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/dependencies/random"
	"github.com/mcoot/tichu/internal/model"
)

func requireStage(g *model.Game, stage model.Stage) error {
	if g.Stage != stage {
		return fmt.Errorf("%w: game is %s, not %s", model.ErrWrongStage, g.Stage, stage)
	}
	return nil
}

func requirePlayer(g *model.Game, userID model.UserID) (*model.Player, error) {
	p := g.Player(userID)
	if p == nil {
		return nil, model.ErrNotInGame
	}
	return p, nil
}

// addPlayer seats a player. The fourth player starts the game.
func addPlayer(g *model.Game, p *model.Player, r random.Random) error {
	if g.Player(p.UserID) != nil {
		return model.ErrAlreadyInGame
	}
	if g.IsFull() {
		return model.ErrGameFull
	}
	if g.Stage != model.StageLobby {
		return model.ErrGameInProgress
	}

	p.Seat = len(g.Players)
	p.GrandTichu = model.CallUndecided
	g.Players = append(g.Players, p)

	if g.IsFull() {
		deal(g, shuffle(cards.NewDeck(), r))
	}
	return nil
}

// removePlayer unseats a player between rounds and renumbers seats
func removePlayer(g *model.Game, userID model.UserID) error {
	if _, err := requirePlayer(g, userID); err != nil {
		return err
	}
	if g.Stage != model.StageLobby && g.Stage != model.StageEnded {
		return model.ErrGameInProgress
	}

	g.Players = lo.Reject(g.Players, func(p *model.Player, _ int) bool { return p.UserID == userID })
	for i, p := range g.Players {
		p.Seat = i
	}

	// A finished game goes back to the lobby so the seat can be refilled
	if g.Stage == model.StageEnded {
		for _, p := range g.Players {
			*p = model.Player{
				UserID:      p.UserID,
				DisplayName: p.DisplayName,
				Seat:        p.Seat,
				BotStrategy: p.BotStrategy,
				GrandTichu:  model.CallUndecided,
			}
		}
		g.Trick = model.Trick{}
		g.FinishedCount = 0
		g.TeamScores = [2]int{}
		g.Stage = model.StageLobby
	}
	return nil
}

// shuffle is a Fisher-Yates shuffle
func shuffle(deck []cards.Card, r random.Random) []cards.Card {
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// deal hands out a full deck: 8 cards now, 6 held back until the grand tichu call completes
func deal(g *model.Game, deck []cards.Card) {
	for i, p := range g.Players {
		hand := deck[i*model.HandSize : (i+1)*model.HandSize]
		p.Hand = append([]cards.Card(nil), hand[:model.FirstDealSize]...)
		p.Reserved = append([]cards.Card(nil), hand[model.FirstDealSize:]...)
		p.GrandTichu = model.CallUndecided
		p.Trade = nil
		p.Won = nil
		p.FinishedPosition = 0
		p.Passed = false
	}
	g.Trick = model.Trick{}
	g.FinishedCount = 0
	g.TeamScores = [2]int{}
	g.Stage = model.StageGrandTichuCall
}

func callGrandTichu(g *model.Game, userID model.UserID, call bool) error {
	if err := requireStage(g, model.StageGrandTichuCall); err != nil {
		return err
	}
	p, err := requirePlayer(g, userID)
	if err != nil {
		return err
	}
	if p.GrandTichu != model.CallUndecided {
		return model.ErrAlreadyDecided
	}

	p.GrandTichu = model.CallDeclined
	if call {
		p.GrandTichu = model.CallCalled
	}

	allDecided := lo.EveryBy(g.Players, func(p *model.Player) bool { return p.GrandTichu != model.CallUndecided })
	if allDecided {
		for _, p := range g.Players {
			p.Hand = append(p.Hand, p.Reserved...)
			p.Reserved = nil
		}
		g.Stage = model.StageTrading
	}
	return nil
}

func submitTrade(g *model.Game, userID model.UserID, trade model.Trade) error {
	if err := requireStage(g, model.StageTrading); err != nil {
		return err
	}
	p, err := requirePlayer(g, userID)
	if err != nil {
		return err
	}
	if p.Trade != nil {
		return model.ErrAlreadyTraded
	}

	given := trade.Cards()
	if len(lo.Uniq(given)) != len(given) {
		return model.ErrInvalidTrade
	}
	if !cards.ContainsAll(p.Hand, given) {
		return model.ErrCardsNotInHand
	}
	p.Trade = &trade

	if lo.EveryBy(g.Players, func(p *model.Player) bool { return p.Trade != nil }) {
		applyTrades(g)
	}
	return nil
}

// applyTrades exchanges every submitted trade and starts trick play
func applyTrades(g *model.Game) {
	received := make([][]cards.Card, len(g.Players))
	for _, p := range g.Players {
		received[model.NextSeat(p.Seat)] = append(received[model.NextSeat(p.Seat)], p.Trade.Left)
		received[model.PartnerSeat(p.Seat)] = append(received[model.PartnerSeat(p.Seat)], p.Trade.Partner)
		prev := (p.Seat + model.MaxPlayers - 1) % model.MaxPlayers
		received[prev] = append(received[prev], p.Trade.Right)
	}

	mahJong := cards.NewSpecial(cards.SuitMahJong)
	for _, p := range g.Players {
		p.Hand = append(cards.RemoveCards(p.Hand, p.Trade.Cards()), received[p.Seat]...)
		cards.SortForHand(p.Hand)
		if lo.Contains(p.Hand, mahJong) {
			g.Turn = p.Seat
		}
	}

	g.Trick = model.Trick{}
	g.Stage = model.StagePlaying
}

func playCards(g *model.Game, userID model.UserID, played []cards.Card) error {
	if err := requireStage(g, model.StagePlaying); err != nil {
		return err
	}
	p, err := requirePlayer(g, userID)
	if err != nil {
		return err
	}
	if p.IsOut() {
		return model.ErrPlayerFinished
	}
	if !cards.ContainsAll(p.Hand, played) {
		return model.ErrCardsNotInHand
	}

	combo, ok := cards.Classify(played)
	if !ok {
		return cards.ErrInvalidCombination
	}

	// Bombs may interrupt a trick out of turn
	outOfTurnBomb := combo.IsBomb() && !g.Trick.IsEmpty()
	if g.Turn != p.Seat && !outOfTurnBomb {
		return model.ErrNotYourTurn
	}

	laid, err := cards.Follow(g.Trick.Top(), combo)
	if err != nil {
		return err
	}

	p.Hand = cards.RemoveCards(p.Hand, played)
	g.Trick.Plays = append(g.Trick.Plays, model.Play{Seat: p.Seat, Combination: laid})
	for _, other := range g.Players {
		other.Passed = false
	}
	if len(p.Hand) == 0 {
		g.FinishedCount++
		p.FinishedPosition = g.FinishedCount
	}

	if laid.IsDog() {
		// The dog hands the lead to the partner and scores nothing
		p.Won = append(p.Won, g.Trick.Cards()...)
		g.Trick = model.Trick{}
		if endIfOver(g) {
			return nil
		}
		g.Turn = leadFrom(g, model.PartnerSeat(p.Seat))
		return nil
	}

	if endIfOver(g) {
		return nil
	}
	g.Turn = nextActive(g, p.Seat)
	return nil
}

func pass(g *model.Game, userID model.UserID) error {
	if err := requireStage(g, model.StagePlaying); err != nil {
		return err
	}
	p, err := requirePlayer(g, userID)
	if err != nil {
		return err
	}
	if g.Turn != p.Seat {
		return model.ErrNotYourTurn
	}
	if g.Trick.IsEmpty() {
		return model.ErrCannotPassOnLead
	}

	p.Passed = true

	if trickComplete(g) {
		winner := g.Trick.TopSeat()
		awardTrick(g)
		g.Turn = leadFrom(g, winner)
		return nil
	}
	g.Turn = nextActive(g, p.Seat)
	return nil
}

// trickComplete reports whether every active player except the top play's owner has passed
func trickComplete(g *model.Game) bool {
	top := g.Trick.TopSeat()
	return lo.EveryBy(g.Players, func(p *model.Player) bool {
		return p.Seat == top || p.IsOut() || p.Passed
	})
}

// awardTrick gives the trick to its winner. A trick won with the dragon
// goes to the next seat, an opponent.
func awardTrick(g *model.Game) {
	winner := g.Trick.TopSeat()
	recipient := winner
	if g.Trick.Top().IsDragon() {
		recipient = model.NextSeat(winner)
	}
	taker := g.PlayerAt(recipient)
	taker.Won = append(taker.Won, g.Trick.Cards()...)

	g.Trick = model.Trick{}
	for _, p := range g.Players {
		p.Passed = false
	}
}

// nextActive returns the next seat after seat still holding cards, or -1
func nextActive(g *model.Game, seat int) int {
	for i := 1; i <= model.MaxPlayers; i++ {
		s := (seat + i) % model.MaxPlayers
		if !g.PlayerAt(s).IsOut() {
			return s
		}
	}
	return -1
}

// leadFrom returns seat if it still holds cards, otherwise the next active seat
func leadFrom(g *model.Game, seat int) int {
	if !g.PlayerAt(seat).IsOut() {
		return seat
	}
	return nextActive(g, seat)
}

// endIfOver ends the round once a team finishes one-two or a single player
// is left holding cards. The trick in progress is awarded and the last
// player's tricks go to the winner. Scoring is left to the caller.
func endIfOver(g *model.Game) bool {
	active := lo.Filter(g.Players, func(p *model.Player, _ int) bool { return !p.IsOut() })

	doubleVictory := false
	if g.FinishedCount >= 2 {
		first, second := finisher(g, 1), finisher(g, 2)
		doubleVictory = model.Team(first.Seat) == model.Team(second.Seat)
	}
	if !doubleVictory && len(active) > 1 {
		return false
	}

	if !g.Trick.IsEmpty() {
		awardTrick(g)
	}
	if !doubleVictory && len(active) == 1 {
		first, last := finisher(g, 1), active[0]
		first.Won = append(first.Won, last.Won...)
		last.Won = nil
	}

	g.Stage = model.StageEnded
	g.Turn = -1
	return true
}

func finisher(g *model.Game, position int) *model.Player {
	p, _ := lo.Find(g.Players, func(p *model.Player) bool { return p.FinishedPosition == position })
	return p
}
