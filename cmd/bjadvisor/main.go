package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Serve     ServeCmd         `cmd:"" help:"Run the HTTP and WebSocket advisor"`
	Advise    AdviseCmd        `cmd:"" help:"Recommend an action for one hand"`
	Analyze   AnalyzeCmd       `cmd:"" help:"Print the analysis report of recorded hands"`
	Stats     StatsCmd         `cmd:"" help:"Print summary statistics as JSON"`
	Dashboard DashboardCmd     `cmd:"" help:"Live terminal dashboard of recorded statistics"`
	Chart     ChartCmd         `cmd:"" help:"Print the strategy charts"`
	Simulate  SimulateCmd      `cmd:"" help:"Play simulated hands against the strategy"`
}

func main() {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bjadvisor"),
		kong.Description("Blackjack strategy advisor and hand recorder"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
