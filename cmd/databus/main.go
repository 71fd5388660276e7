package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/databus-cr/databus-go/api"
	"github.com/databus-cr/databus-go/config"
	"github.com/databus-cr/databus-go/gtfs"
	"github.com/databus-cr/databus-go/internal"
	"github.com/databus-cr/databus-go/store"
	"github.com/databus-cr/databus-go/validation"
)

const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitUsageError     = 2
	ExitValidationFail = 3
)

func main() {
	internal.InitLogging()

	app := &cli.App{
		Name:    "databus",
		Usage:   "GTFS toolkit for the Databús transit-data platform",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				EnvVars: []string{"DATABUS_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "feeds",
				Usage: "List available GTFS feeds",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "country", Usage: "Filter feeds by ISO country code"},
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON instead of a table"},
				},
				Action: listFeeds,
			},
			{
				Name:      "download",
				Usage:     "Download a GTFS feed archive",
				ArgsUsage: "<feed-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
				},
				Action: downloadFeed,
			},
			{
				Name:      "stats",
				Usage:     "Show statistics for a local GTFS feed",
				ArgsUsage: "<feed-path>",
				Action:    feedStats,
			},
			{
				Name:      "validate",
				Usage:     "Validate a local GTFS feed",
				ArgsUsage: "<feed-path>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the JSON report to a file"},
					&cli.BoolFlag{Name: "save", Usage: "Record the run in the report history database"},
				},
				Action: validateFeed,
			},
			{
				Name:      "export",
				Usage:     "Export a local GTFS feed's stops and shapes as GeoJSON",
				ArgsUsage: "<feed-path>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: ".", Usage: "Output directory"},
				},
				Action: exportFeed,
			},
			{
				Name:      "filter",
				Usage:     "Filter a local GTFS feed by bounding box or date range",
				ArgsUsage: "<input-path> <output-path>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "bbox", Usage: "Bounding box as 'min_lon,min_lat,max_lon,max_lat'"},
					&cli.StringFlag{Name: "dates", Usage: "Date range as 'start,end' (YYYY-MM-DD)"},
				},
				Action: filterFeed,
			},
			{
				Name:  "history",
				Usage: "List past validation runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum runs to list"},
				},
				Action: listHistory,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func loadConfig(c *cli.Context) (config.AppConfig, error) {
	return config.Load(c.String("config"))
}

func listFeeds(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	client := api.NewClient(cfg.API)
	feeds, err := client.Feeds(c.String("country"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		out, err := json.MarshalIndent(feeds, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, f := range feeds {
		size := "N/A"
		if f.FileSize > 0 {
			size = internal.FormatFileSize(f.FileSize)
		}
		fmt.Printf("%-24s %-32s %-4s %10s\n", f.ID, f.Name, f.CountryCode, size)
	}
	fmt.Printf("\nTotal feeds: %d\n", len(feeds))
	return nil
}

func downloadFeed(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: databus download <feed-id>", ExitUsageError)
	}
	feedID := c.Args().First()
	output := c.String("output")
	if output == "" {
		output = feedID + ".zip"
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	client := api.NewClient(cfg.API)

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := client.DownloadFeed(feedID, f)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %s (%s) to %s\n", feedID, internal.FormatFileSize(n), output)
	return nil
}

func feedStats(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: databus stats <feed-path>", ExitUsageError)
	}
	feed, err := gtfs.Load(c.Args().First())
	if err != nil {
		return err
	}
	stats := feed.Stats()
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func validateFeed(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: databus validate <feed-path>", ExitUsageError)
	}
	feedPath := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	feed, err := gtfs.Load(feedPath)
	if err != nil {
		return err
	}

	engine := validation.NewEngine()
	engine.SetPassThreshold(cfg.Validation.PassThreshold)
	report, err := engine.Validate(feed)
	if err != nil {
		var missing *validation.MissingTableError
		if errors.As(err, &missing) {
			return cli.Exit(fmt.Sprintf("fatal: %v", missing), ExitValidationFail)
		}
		return err
	}

	out, err := report.JSON()
	if err != nil {
		return err
	}
	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
	} else {
		fmt.Println(string(out))
	}

	if c.Bool("save") {
		db, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		runID, err := db.SaveReport(feedPath, report)
		if err != nil {
			return err
		}
		fmt.Printf("Saved as run %d in %s\n", runID, cfg.Store.Path)
	}

	if report.Status == validation.StatusFail {
		return cli.Exit(fmt.Sprintf("validation failed: score %d", report.Score), ExitValidationFail)
	}
	return nil
}

func exportFeed(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: databus export <feed-path>", ExitUsageError)
	}
	feed, err := gtfs.Load(c.Args().First())
	if err != nil {
		return err
	}
	files, err := feed.ExportGeoJSON(c.String("output"))
	if err != nil {
		return err
	}
	for _, layer := range []string{"stops", "shapes"} {
		if path, ok := files[layer]; ok {
			fmt.Printf("%-8s %s\n", layer, path)
		}
	}
	return nil
}

func filterFeed(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: databus filter <input-path> <output-path>", ExitUsageError)
	}
	if c.String("bbox") == "" && c.String("dates") == "" {
		return cli.Exit("filter needs --bbox and/or --dates", ExitUsageError)
	}

	feed, err := gtfs.Load(c.Args().First())
	if err != nil {
		return err
	}

	if bbox := c.String("bbox"); bbox != "" {
		parts := strings.Split(bbox, ",")
		if len(parts) != 4 {
			return cli.Exit("bounding box must be 'min_lon,min_lat,max_lon,max_lat'", ExitUsageError)
		}
		coords := make([]float64, 4)
		for i, p := range parts {
			coords[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid bounding box coordinate %q", p), ExitUsageError)
			}
		}
		feed = feed.FilterByBoundingBox(coords[1], coords[0], coords[3], coords[2])
	}

	if dates := c.String("dates"); dates != "" {
		parts := strings.Split(dates, ",")
		if len(parts) != 2 {
			return cli.Exit("date range must be 'start,end'", ExitUsageError)
		}
		start := strings.ReplaceAll(strings.TrimSpace(parts[0]), "-", "")
		end := strings.ReplaceAll(strings.TrimSpace(parts[1]), "-", "")
		feed, err = feed.FilterByDates(start, end)
		if err != nil {
			return cli.Exit(err.Error(), ExitUsageError)
		}
	}

	output := c.Args().Get(1)
	if err := feed.WriteZip(output); err != nil {
		return err
	}
	fmt.Printf("Filtered feed written to %s\n", output)
	return nil
}

func listHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%4d  %-19s %-4s %3d  %3d errors %3d warnings  %s\n",
			r.ID, r.ValidatedAt.Format("2006-01-02 15:04:05"), r.Status, r.Score,
			r.Errors, r.Warnings, r.FeedPath)
	}
	if len(runs) == 0 {
		fmt.Println("No validation runs recorded.")
	}
	return nil
}
