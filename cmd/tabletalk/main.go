package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Config  string           `help:"Path to HCL config file" default:"tabletalk.hcl" type:"path"`
	Debug   bool             `help:"Enable debug logging"`
	Seed    *int64           `help:"Deterministic RNG seed (optional)"`

	Play  PlayCmd  `cmd:"" help:"Play a card game against the AI opponent"`
	Stats StatsCmd `cmd:"" help:"Show lifetime results per game"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tabletalk"),
		kong.Description("Card games against a trash-talking local language model"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
