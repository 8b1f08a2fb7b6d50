// cmd/marketlist/main.go
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/zeccol/marketlist/internal/cache"
	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/forecast"
	"github.com/zeccol/marketlist/internal/marketlist"
	"github.com/zeccol/marketlist/internal/repository"
	"github.com/zeccol/marketlist/internal/repository/postgres"
	"github.com/zeccol/marketlist/internal/service"
	"github.com/zeccol/marketlist/internal/sheets"
	"github.com/zeccol/marketlist/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "marketlist",
		Usage: "Build the hotel replenishment order sheets from issuance history",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Forecast demand and write the order sheets",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "horizon",
						Usage:   "Forecast horizon: weekly, monthly, or a day count like 14",
						Value:   "monthly",
						EnvVars: []string{"MARKETLIST_HORIZON"},
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Restrict planning to these categories (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Item names to leave out of the run (repeatable)",
					},
					&cli.IntFlag{
						Name:  "max-items",
						Usage: "Cap on planned items, 0 uses the configured ceiling",
					},
					&cli.StringFlag{
						Name:    "db-url",
						Usage:   "Postgres connection string for run auditing (optional)",
						EnvVars: []string{"DATABASE_URL"},
					},
				},
				Action: runBuild,
			},
			{
				Name:   "categories",
				Usage:  "List the distinct categories present in the issuance history",
				Action: runCategories,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func newPlanner(c *cli.Context) (*service.Planner, func(), error) {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	store, err := sheets.NewService(cfg.Sheets.CredentialsJSON, cfg.Sheets.RequestsPerSecond)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	cleanup := func() {}
	runs := repository.NewNoopRunRepository()
	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.NewDBFromURL(dbURL)
		if err != nil {
			return nil, nil, err
		}
		runs, err = postgres.NewRunRepository(c.Context, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup = func() { db.Close() }
	}

	fcache := cache.NewForecastCache(cfg.Cache)
	prev := cleanup
	cleanup = func() {
		fcache.Close()
		prev()
	}

	return service.NewPlanner(cfg, store, fcache, runs), cleanup, nil
}

func runBuild(c *cli.Context) error {
	horizon, err := forecast.ParseHorizon(c.String("horizon"))
	if err != nil {
		return err
	}

	planner, cleanup, err := newPlanner(c)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := planner.BuildMarketList(c.Context, marketlist.Params{
		Horizon:       horizon,
		Categories:    c.StringSlice("category"),
		ExcludedItems: c.StringSlice("exclude"),
		MaxItems:      c.Int("max-items"),
	})
	if err != nil {
		return err
	}

	logger.Log.Info().
		Int64("run_id", summary.RunID).
		Int("total", summary.TotalItems).
		Int("purchased", summary.Purchased).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("house_rows", summary.HouseRows).
		Int("staff_rows", summary.StaffRows).
		Int("chemicals_rows", summary.ChemicalsRows).
		Msg("market list written")
	return nil
}

func runCategories(c *cli.Context) error {
	planner, cleanup, err := newPlanner(c)
	if err != nil {
		return err
	}
	defer cleanup()

	categories, err := planner.Categories(c.Context)
	if err != nil {
		return err
	}
	for _, category := range categories {
		fmt.Println(category)
	}
	return nil
}
