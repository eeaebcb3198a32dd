package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/bendanzhentan/eliza/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	// A missing .env file is fine; real deployments set the environment.
	godotenv.Load()

	app := &cli.App{
		Name:    "eliza",
		Usage:   "Autonomous social agent that watches mentions and replies in character",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
