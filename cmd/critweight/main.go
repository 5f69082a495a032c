package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/critweight/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "critweight",
		Usage:   "Weight evaluation criteria by their semantic relevance to a question",
		Version: version.Version + " (" + version.Commit + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment, selects config/<env>.yaml",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
			},
			{
				Name:   "compute",
				Usage:  "Compute weights from precomputed vectors without calling a provider",
				Action: computeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON request with query_vector and criterion_vectors (\"-\" for stdin)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Indent the JSON output",
					},
				},
			},
		},
		DefaultCommand: "serve",
	}
}
