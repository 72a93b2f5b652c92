package holdem

import (
	"context"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/deck"
	"github.com/tabletalk/tabletalk/internal/event"
	"github.com/tabletalk/tabletalk/internal/gameid"
)

// SeatConfig describes a participant before the hand starts.
type SeatConfig struct {
	Name  string
	Role  Role
	Chips int
}

// LogEntry is one line of the hand's action log.
type LogEntry struct {
	Seq    int    `json:"seq"`
	Seat   string `json:"seat"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// Hand is the Texas Hold'em state machine for a single hand. It owns its
// deck and seats exclusively and is not safe for concurrent use.
type Hand struct {
	logger   *log.Logger
	dispatch *agent.Dispatcher
	bus      *event.Bus
	rng      *rand.Rand

	seats   []*Seat
	button  int
	street  Street
	board   []deck.Card
	deck    *deck.Deck
	betting *BettingRound
	pots    *PotManager
	active  int

	roundID      string
	smallBlind   int
	bigBlind     int
	initialChips int
	humanStart   int
	entries      []LogEntry
	finished     bool
	result       event.Result
	winnings     map[int]int
	detail       string
	stacked      *deck.Deck
}

// Option configures a hand.
type Option func(*Hand)

// WithDeck supplies a prepared deck for deterministic scenario tests.
func WithDeck(d *deck.Deck) Option {
	return func(h *Hand) { h.stacked = d }
}

// NewHand creates a hand from seat configurations. The button index
// rotates between hands at the session level.
func NewHand(dispatch *agent.Dispatcher, bus *event.Bus, logger *log.Logger, rng *rand.Rand,
	configs []SeatConfig, button, smallBlind, bigBlind int, opts ...Option) *Hand {

	seats := make([]*Seat, len(configs))
	total := 0
	humanStart := 0
	for i, cfg := range configs {
		seats[i] = &Seat{Index: i, Name: cfg.Name, Role: cfg.Role, Chips: cfg.Chips}
		total += cfg.Chips
		if cfg.Role == Human {
			humanStart = cfg.Chips
		}
	}

	h := &Hand{
		logger:       logger.WithPrefix("holdem"),
		dispatch:     dispatch,
		bus:          bus,
		rng:          rng,
		seats:        seats,
		button:       button,
		smallBlind:   smallBlind,
		bigBlind:     bigBlind,
		initialChips: total,
		humanStart:   humanStart,
		active:       -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RoundID returns the identifier of this hand.
func (h *Hand) RoundID() string { return h.roundID }

// Street returns the current betting street.
func (h *Hand) Street() Street { return h.street }

// Board returns a copy of the community cards.
func (h *Hand) Board() []deck.Card { return append([]deck.Card(nil), h.board...) }

// Seats returns the seats; callers must treat them as read-only.
func (h *Hand) Seats() []*Seat { return h.seats }

// Finished reports whether the hand is settled.
func (h *Hand) Finished() bool { return h.finished }

// Result returns the outcome (from the human's perspective) once the
// hand is finished.
func (h *Hand) Result() (event.Result, bool) {
	if !h.finished {
		return "", false
	}
	return h.result, true
}

// Winnings returns chips won per seat index at settlement.
func (h *Hand) Winnings() map[int]int { return h.winnings }

// Start deals hole cards and posts blinds. Preflop action starts left of
// the big blind (the button itself when heads-up).
func (h *Hand) Start(ctx context.Context) error {
	if h.roundID != "" {
		return fmt.Errorf("hand already started")
	}
	if len(h.seats) < 2 {
		return fmt.Errorf("need at least 2 seats, got %d", len(h.seats))
	}

	h.roundID = gameid.New()
	if h.stacked != nil {
		h.deck = h.stacked
	} else {
		h.deck = deck.NewShuffledDeck(h.rng)
	}
	h.pots = NewPotManager(h.seats)
	h.betting = NewBettingRound(len(h.seats), h.bigBlind)

	for _, s := range h.seats {
		s.Hole = h.deck.DrawN(2)
	}
	h.postBlinds()

	if len(h.seats) == 2 {
		h.active = h.nextActor(h.button)
	} else {
		h.active = h.nextActor((h.button + 3) % len(h.seats))
	}

	h.logger.Debug("Hand started", "round", h.roundID, "button", h.button,
		"blinds", fmt.Sprintf("%d/%d", h.smallBlind, h.bigBlind))
	h.publishSnapshot()
	return nil
}

func (h *Hand) postBlinds() {
	sb := h.seats[smallBlindPos(len(h.seats), h.button)]
	bb := h.seats[bigBlindPos(len(h.seats), h.button)]

	h.commit(sb, min(h.smallBlind, sb.Chips))
	h.commit(bb, min(h.bigBlind, bb.Chips))
	h.betting.CurrentBet = h.bigBlind

	h.append(sb.Name, "small_blind", sb.Bet)
	h.append(bb.Name, "big_blind", bb.Bet)
}

// commit moves chips from stack to the street bet, flagging all-in when
// the stack empties.
func (h *Hand) commit(s *Seat, amount int) {
	s.Chips -= amount
	s.Bet += amount
	s.TotalBet += amount
	if s.Chips == 0 {
		s.AllIn = true
	}
}

// CurrentSeat returns the seat due to act, or nil when betting is closed
// or the hand is finished.
func (h *Hand) CurrentSeat() *Seat {
	if h.finished || h.active < 0 {
		return nil
	}
	return h.seats[h.active]
}

// LegalActions returns the legal-action set for the seat due to act.
func (h *Hand) LegalActions() []agent.LegalAction {
	seat := h.CurrentSeat()
	if seat == nil {
		return nil
	}
	return h.betting.LegalActions(seat)
}

// ApplyIntent validates and applies a user intent for the human seat.
// Illegal intents are rejected with ErrIllegalAction and no state change.
func (h *Hand) ApplyIntent(ctx context.Context, decision agent.Decision) error {
	seat := h.CurrentSeat()
	if seat == nil {
		return fmt.Errorf("%w: no action expected", agent.ErrIllegalAction)
	}
	if seat.Role != Human {
		return fmt.Errorf("%w: not the human's turn", agent.ErrIllegalAction)
	}
	if !agent.Legal(decision, h.betting.LegalActions(seat)) {
		return fmt.Errorf("%w: %s %d", agent.ErrIllegalAction, decision.Action, decision.Amount)
	}
	return h.apply(seat, decision)
}

// StepAI suspends at the current AI seat's decision point and applies
// the provider's (or fallback) decision. The caller must have checked
// that the current seat is an AI seat.
func (h *Hand) StepAI(ctx context.Context) error {
	seat := h.CurrentSeat()
	if seat == nil || seat.Role != AI {
		return fmt.Errorf("%w: no AI action expected", agent.ErrIllegalAction)
	}

	legal := h.betting.LegalActions(seat)
	req := agent.Request{
		GameType:     agent.Holdem,
		RoundID:      h.roundID,
		State:        h.providerView(seat),
		LegalActions: legal,
	}
	decision, err := h.dispatch.Decide(ctx, req, h.betting.Fallback(seat))
	if err != nil {
		return err
	}
	if decision.Commentary != "" {
		h.bus.Publish(event.NewCommentary(string(agent.Holdem), h.roundID, "decision", decision.Commentary))
	}
	return h.apply(seat, decision)
}

// apply mutates the hand for a validated decision, then advances the
// action or closes the street.
func (h *Hand) apply(seat *Seat, decision agent.Decision) error {
	h.betting.MarkActed(seat.Index)
	if h.street == Preflop && seat.Index == bigBlindPos(len(h.seats), h.button) {
		h.betting.BBActed = true
	}

	switch decision.Action {
	case agent.Fold:
		seat.Folded = true
		h.append(seat.Name, "fold", 0)

	case agent.Check:
		h.append(seat.Name, "check", 0)

	case agent.Call:
		toCall := min(h.betting.CurrentBet-seat.Bet, seat.Chips)
		h.commit(seat, toCall)
		h.append(seat.Name, "call", toCall)

	case agent.Raise:
		// Amount is the total bet to reach; legality (min raise, stack
		// bound) was checked against the advertised set.
		raiseTo := decision.Amount
		h.betting.MinRaise = raiseTo - h.betting.CurrentBet
		h.betting.CurrentBet = raiseTo
		h.betting.LastRaiser = seat.Index
		h.commit(seat, raiseTo-seat.Bet)
		h.betting.ResetActedExcept(seat.Index)
		h.append(seat.Name, "raise", raiseTo)

	case agent.AllIn:
		allIn := seat.Chips
		h.commit(seat, allIn)
		if seat.Bet > h.betting.CurrentBet {
			// An all-in above the current bet acts as a raise.
			h.betting.MinRaise = seat.Bet - h.betting.CurrentBet
			h.betting.CurrentBet = seat.Bet
			h.betting.LastRaiser = seat.Index
			h.betting.ResetActedExcept(seat.Index)
		}
		h.append(seat.Name, "allin", seat.Bet)

	default:
		return fmt.Errorf("%w: %s", agent.ErrIllegalAction, decision.Action)
	}

	seat.LastAction = decision.Action
	h.logger.Debug("Action applied", "round", h.roundID, "seat", seat.Name,
		"action", decision.Action, "amount", decision.Amount, "street", h.street)

	if h.contested() < 2 {
		h.settleByFold()
		return nil
	}

	h.active = h.nextActor(h.active + 1)
	if h.active == -1 || h.betting.Complete(h.seats, h.street, h.button) {
		h.endStreet()
	} else {
		h.publishSnapshot()
	}
	return nil
}

// contested counts seats still in the hand.
func (h *Hand) contested() int {
	n := 0
	for _, s := range h.seats {
		if s.InHand() {
			n++
		}
	}
	return n
}

// nextActor finds the next seat that can act, scanning from the given
// index. Returns -1 when nobody can.
func (h *Hand) nextActor(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		pos := ((from % n) + n + i) % n
		if h.seats[pos].CanAct() {
			return pos
		}
	}
	return -1
}

// endStreet closes the betting round: bets are swept into the pot
// layering, the next street is dealt, and when nobody is left to act
// (everyone all-in) the remaining streets run out automatically.
func (h *Hand) endStreet() {
	h.pots.CollectBets(h.seats)
	h.pots.Rebuild(h.seats)
	h.betting.ResetForStreet(len(h.seats))

	if err := h.validateConservation(); err != nil {
		// Conservation is a hard invariant; a violation is an engine bug
		// worth loud logs but never a crashed game.
		h.logger.Error("Chip conservation violated", "round", h.roundID, "error", err)
	}

	switch h.street {
	case Preflop:
		h.street = Flop
		h.board = append(h.board, h.deck.DrawN(3)...)
	case Flop:
		h.street = Turn
		h.board = append(h.board, h.deck.DrawN(1)...)
	case Turn:
		h.street = River
		h.board = append(h.board, h.deck.DrawN(1)...)
	case River:
		h.street = Showdown
		h.showdown()
		return
	case Showdown:
		return
	}

	h.logger.Debug("Street dealt", "round", h.roundID, "street", h.street, "board", h.board)

	h.active = h.nextActor(h.button + 1)
	h.publishSnapshot()

	if h.active == -1 {
		// All remaining seats are all-in: nothing to bet, run it out.
		h.endStreet()
	}
}

// settleByFold awards everything to the last contested seat without
// revealing further cards.
func (h *Hand) settleByFold() {
	h.pots.CollectBets(h.seats)
	h.pots.Rebuild(h.seats)

	var winner *Seat
	for _, s := range h.seats {
		if s.InHand() {
			winner = s
			break
		}
	}
	h.winnings = h.pots.Distribute(h.seats, func(Pot) []int {
		return []int{winner.Index}
	})
	h.finishHand(fmt.Sprintf("%s wins uncontested", winner.Name))
}

// showdown evaluates every pot independently against the seats eligible
// for it and distributes the chips.
func (h *Hand) showdown() {
	ranks := make(map[int]HandRank)
	for _, s := range h.seats {
		if s.InHand() {
			ranks[s.Index] = Evaluate(append(append([]deck.Card(nil), s.Hole...), h.board...))
		}
	}

	h.winnings = h.pots.Distribute(h.seats, func(pot Pot) []int {
		var best HandRank
		var winners []int
		for _, idx := range pot.Eligible {
			rank, ok := ranks[idx]
			if !ok {
				continue
			}
			switch rank.Compare(best) {
			case 1:
				best = rank
				winners = []int{idx}
			case 0:
				winners = append(winners, idx)
			}
		}
		return winners
	})

	// Announce the earliest winning seat so split pots read the same
	// every run.
	detail := "showdown"
	for idx := range h.seats {
		if h.winnings[idx] > 0 {
			detail = fmt.Sprintf("%s wins with %s", h.seats[idx].Name, ranks[idx].Category)
			break
		}
	}
	h.finishHand(detail)
}

func (h *Hand) finishHand(detail string) {
	h.finished = true
	h.active = -1
	h.detail = detail

	if err := h.validateConservation(); err != nil {
		h.logger.Error("Chip conservation violated at settlement", "round", h.roundID, "error", err)
	}

	human := h.humanSeat()
	result := event.Push
	if human != nil {
		switch {
		case human.Chips > h.humanStart:
			result = event.Win
		case human.Chips < h.humanStart:
			result = event.Loss
		}
	}
	h.result = result

	var humanChips, aiChips int
	for _, s := range h.seats {
		if s.Role == Human {
			humanChips = s.Chips
		} else {
			aiChips += s.Chips
		}
	}

	h.logger.Info("Hand settled", "round", h.roundID, "result", result, "detail", detail)
	h.bus.Publish(event.NewOutcome(string(agent.Holdem), h.roundID, result,
		1, humanChips, aiChips, detail))
	h.publishSnapshot()
}

func (h *Hand) humanSeat() *Seat {
	for _, s := range h.seats {
		if s.Role == Human {
			return s
		}
	}
	return nil
}

// validateConservation checks that stacks, street bets and pots still
// sum to the starting chip total.
func (h *Hand) validateConservation() error {
	total := h.pots.Total()
	for _, s := range h.seats {
		total += s.Chips + s.Bet
	}
	if total != h.initialChips {
		return fmt.Errorf("chip total %d, expected %d", total, h.initialChips)
	}
	return nil
}

func (h *Hand) append(seat, action string, amount int) {
	h.entries = append(h.entries, LogEntry{
		Seq:    len(h.entries) + 1,
		Seat:   seat,
		Action: action,
		Amount: amount,
	})
}

// SeatView is the per-seat slice of a provider or UI view. Hole cards
// are only present for the viewing seat (or at showdown).
type SeatView struct {
	Name       string   `json:"name"`
	Role       Role     `json:"role"`
	Chips      int      `json:"chips"`
	Bet        int      `json:"bet"`
	TotalBet   int      `json:"total_bet"`
	Folded     bool     `json:"folded"`
	AllIn      bool     `json:"all_in"`
	HoleCards  []string `json:"hole_cards,omitempty"`
	LastAction string   `json:"last_action,omitempty"`
}

// View is the read-only projection handed to the decision provider,
// scoped to what the acting seat may see.
type View struct {
	Street     string     `json:"street"`
	Board      []string   `json:"board"`
	Pot        int        `json:"pot"`
	CurrentBet int        `json:"current_bet"`
	ToCall     int        `json:"to_call"`
	Seats      []SeatView `json:"seats"`
	ActionLog  []LogEntry `json:"action_log"`
}

func (h *Hand) providerView(viewer *Seat) View {
	board := make([]string, len(h.board))
	for i, c := range h.board {
		board[i] = c.Describe()
	}

	seats := make([]SeatView, len(h.seats))
	for i, s := range h.seats {
		sv := SeatView{
			Name:     s.Name,
			Role:     s.Role,
			Chips:    s.Chips,
			Bet:      s.Bet,
			TotalBet: s.TotalBet,
			Folded:   s.Folded,
			AllIn:    s.AllIn,
		}
		if s.LastAction != "" {
			sv.LastAction = string(s.LastAction)
		}
		if s == viewer {
			sv.HoleCards = make([]string, len(s.Hole))
			for j, c := range s.Hole {
				sv.HoleCards[j] = c.Describe()
			}
		}
		seats[i] = sv
	}

	pot := h.pots.Total()
	for _, s := range h.seats {
		pot += s.Bet
	}

	return View{
		Street:     h.street.String(),
		Board:      board,
		Pot:        pot,
		CurrentBet: h.betting.CurrentBet,
		ToCall:     max(0, h.betting.CurrentBet-viewer.Bet),
		Seats:      seats,
		ActionLog:  append([]LogEntry(nil), h.entries...),
	}
}

// Snapshot is the read-only state published to UI subscribers after each
// mutating transition.
type Snapshot struct {
	Street   string
	Board    []deck.Card
	Pot      int
	Pots     []Pot
	Seats    []SeatView
	ToAct    string
	Finished bool
	Result   event.Result
	Detail   string
}

func (h *Hand) publishSnapshot() {
	seats := make([]SeatView, len(h.seats))
	for i, s := range h.seats {
		sv := SeatView{
			Name:     s.Name,
			Role:     s.Role,
			Chips:    s.Chips,
			Bet:      s.Bet,
			TotalBet: s.TotalBet,
			Folded:   s.Folded,
			AllIn:    s.AllIn,
		}
		// The human sees their own cards always, and everyone's at a
		// contested showdown.
		if s.Role == Human || (h.finished && h.street == Showdown && s.InHand()) {
			sv.HoleCards = make([]string, len(s.Hole))
			for j, c := range s.Hole {
				sv.HoleCards[j] = c.String()
			}
		}
		seats[i] = sv
	}

	pot := 0
	if h.pots != nil {
		pot = h.pots.Total()
	}
	for _, s := range h.seats {
		pot += s.Bet
	}

	toAct := ""
	if seat := h.CurrentSeat(); seat != nil {
		toAct = seat.Name
	}

	var pots []Pot
	if h.pots != nil {
		pots = append(pots, h.pots.Pots()...)
	}

	snap := Snapshot{
		Street:   h.street.String(),
		Board:    h.Board(),
		Pot:      pot,
		Pots:     pots,
		Seats:    seats,
		ToAct:    toAct,
		Finished: h.finished,
		Result:   h.result,
		Detail:   h.detail,
	}
	h.bus.Publish(event.NewSnapshot(string(agent.Holdem), h.roundID, h.street.String(), snap))
}
