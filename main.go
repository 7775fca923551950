package main

import (
	"context"
	"log"
	"os"

	"saffron/config"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "saffron",
		Usage: "Recipe and blog content API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file loaded before the environment",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			tagsCommand(),
			cacheCommand(),
			sitemapCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// withApp loads the configuration, wires the services and closes them once
// fn returns.
func withApp(ctx context.Context, c *cli.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}
