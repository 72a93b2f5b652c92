package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/stats"
)

// StatsCmd prints aggregate results from the stats database.
type StatsCmd struct{}

func (c *StatsCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	recorder, err := stats.OpenSQLite(cfg.Stats.Path)
	if err != nil {
		return err
	}
	defer recorder.Close()

	summaries, err := recorder.Summaries(context.Background())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No games recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tWINS\tLOSSES\tPUSHES\tTOTAL")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", s.Game, s.Wins, s.Losses, s.Pushes, s.Total)
	}
	return w.Flush()
}
