package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	rand "math/rand/v2"

	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/event"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/randutil"
	"github.com/tabletalk/tabletalk/internal/session"
	"github.com/tabletalk/tabletalk/internal/stats"
)

// PlayCmd runs one interactive game loop against the model.
type PlayCmd struct {
	Game string `arg:"" enum:"blackjack,war,holdem" help:"Game to play (blackjack, war, holdem)"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, cli.Debug)

	var rng *rand.Rand
	if cli.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *cli.Seed)
		rng = randutil.New(*cli.Seed)
	} else {
		rng = randutil.New(randutil.NewSeed())
	}

	decisionTimeout, err := cfg.DecisionTimeout()
	if err != nil {
		return err
	}
	requestTimeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}

	client := llm.NewClient(cfg.AI.Host, cfg.AI.Model, requestTimeout, logger)
	provider := llm.NewProvider(client, logger)
	dispatch := agent.NewDispatcher(provider, logger, quartz.NewReal(), decisionTimeout)

	var recorder stats.Recorder
	recorder, err = stats.OpenSQLite(cfg.Stats.Path)
	if err != nil {
		logger.Warn("Stats database unavailable, results will not persist", "error", err)
		recorder = stats.NewMemory()
	}
	defer recorder.Close()

	bus := event.NewBus()
	bus.Subscribe(NewPresenter(os.Stdout, client.ModelName()))
	bus.Subscribe(stats.NewSubscriber(recorder, client.Model(), logger))

	sess := session.New(cfg, dispatch, bus, logger, rng)
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Playing %s against %s. Ctrl-C to quit.\n\n", c.Game, client.ModelName())
	if err := sess.StartGame(ctx, agent.GameType(c.Game)); err != nil {
		return err
	}

	return c.loop(ctx, sess)
}

func (c *PlayCmd) loop(ctx context.Context, sess *session.Session) error {
	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		if _, over := sess.RoundOver(); over {
			fmt.Print("\n[n]ext round or [q]uit? ")
			line, ok := readLine(scanner)
			if !ok || line == "q" || line == "quit" {
				return nil
			}
			if err := sess.NewRound(ctx); err != nil {
				return err
			}
			continue
		}

		fmt.Printf("> %s ", promptFor(sess.LegalActions()))
		line, ok := readLine(scanner)
		if !ok {
			return nil
		}
		if line == "q" || line == "quit" {
			return nil
		}

		if err := c.route(ctx, sess, line); err != nil {
			if errors.Is(err, agent.ErrIllegalAction) {
				fmt.Println("You can't do that right now.")
				continue
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	return nil
}

// route turns one input line into a game intent.
func (c *PlayCmd) route(ctx context.Context, sess *session.Session, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	word := ""
	if len(fields) > 0 {
		word = fields[0]
	}

	switch sess.Game() {
	case agent.Blackjack:
		switch word {
		case "hit", "h":
			return sess.Hit(ctx)
		case "stand", "s":
			return sess.Stand(ctx)
		}

	case agent.War:
		// Any input (including just Enter) flips the next battle.
		_, err := sess.Battle(ctx)
		return err

	case agent.Holdem:
		decision, ok := parseHoldemInput(fields)
		if !ok {
			break
		}
		return sess.Apply(ctx, decision)
	}

	fmt.Println("Unrecognized input.")
	return nil
}

func parseHoldemInput(fields []string) (agent.Decision, bool) {
	if len(fields) == 0 {
		return agent.Decision{}, false
	}
	switch fields[0] {
	case "fold", "f":
		return agent.Decision{Action: agent.Fold}, true
	case "check", "x":
		return agent.Decision{Action: agent.Check}, true
	case "call", "c":
		return agent.Decision{Action: agent.Call}, true
	case "allin", "all-in", "a":
		return agent.Decision{Action: agent.AllIn}, true
	case "raise", "r":
		if len(fields) < 2 {
			return agent.Decision{}, false
		}
		amount, err := strconv.Atoi(fields[1])
		if err != nil {
			return agent.Decision{}, false
		}
		return agent.Decision{Action: agent.Raise, Amount: amount}, true
	}
	return agent.Decision{}, false
}

// promptFor describes the legal actions, with raise bounds when present.
func promptFor(legal []agent.LegalAction) string {
	if len(legal) == 0 {
		return "(waiting)"
	}
	parts := make([]string, len(legal))
	for i, la := range legal {
		switch {
		case la.Action == agent.Raise:
			parts[i] = fmt.Sprintf("raise %d-%d", la.MinAmount, la.MaxAmount)
		case la.Action == agent.Call && la.MinAmount > 0:
			parts[i] = fmt.Sprintf("call %d", la.MinAmount)
		default:
			parts[i] = string(la.Action)
		}
	}
	return "(" + strings.Join(parts, " / ") + ")"
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func setupLogger(cfg *config.Config, debug bool) *log.Logger {
	level := log.InfoLevel
	if parsed, err := log.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           level,
	})
}
