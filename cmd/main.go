package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"

	"github.com/ryanlong1004/lucida-flow/browserfetch"
	"github.com/ryanlong1004/lucida-flow/config"
	"github.com/ryanlong1004/lucida-flow/constant"
	"github.com/ryanlong1004/lucida-flow/extract"
	"github.com/ryanlong1004/lucida-flow/httpapi"
	"github.com/ryanlong1004/lucida-flow/log"
	"github.com/ryanlong1004/lucida-flow/lucida"
)

const (
	flagConfigFilePath = "config"
	flagService        = "service"
	flagLimit          = "limit"
	flagOut            = "out"
	flagListen         = "listen"
)

func main() {
	logger := log.NewPretty(os.Stdout).Level(zerolog.InfoLevel)
	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	configFlag := &cli.StringFlag{
		Name:     flagConfigFilePath,
		Aliases:  []string{"c"},
		Usage:    "Config file path",
		Required: false,
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:    "lucida-flow",
		Version: constant.Version,
		Suggest: true,
		Usage:   "Rate-governed music metadata and download client",
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search a streaming service for tracks, albums, and artists",
				ArgsUsage: "<query>",
				Action:    runSearch,
				Flags: []cli.Flag{
					configFlag,
					//nolint:exhaustruct
					&cli.StringFlag{Name: flagService, Aliases: []string{"s"}, Usage: "Streaming service to search", Value: "tidal"},
					//nolint:exhaustruct
					&cli.IntFlag{Name: flagLimit, Aliases: []string{"n"}, Usage: "Maximum records per listing", Value: 20},
				},
			},
			//nolint:exhaustruct
			{
				Name:      "info",
				Aliases:   []string{"i"},
				Usage:     "Fetch metadata for a single track URL",
				ArgsUsage: "<track-url>",
				Action:    runInfo,
				Flags:     []cli.Flag{configFlag},
			},
			//nolint:exhaustruct
			{
				Name:      "download",
				Aliases:   []string{"d"},
				Usage:     "Download a track through the browser collaborator",
				ArgsUsage: "<track-url>",
				Action:    runDownload,
				Flags: []cli.Flag{
					configFlag,
					//nolint:exhaustruct
					&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Usage: "Output file path"},
				},
			},
			//nolint:exhaustruct
			{
				Name:   "services",
				Usage:  "List supported streaming services",
				Action: runServices,
			},
			//nolint:exhaustruct
			{
				Name:   "stats",
				Usage:  "Show rate limiter configuration and request history",
				Action: runStats,
				Flags:  []cli.Flag{configFlag},
			},
			//nolint:exhaustruct
			{
				Name:   "serve",
				Usage:  "Serve the client over a REST API",
				Action: runServe,
				Flags: []cli.Flag{
					configFlag,
					//nolint:exhaustruct
					&cli.StringFlag{Name: flagListen, Aliases: []string{"l"}, Usage: "Listen address"},
				},
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(flawErr)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

func loadConfig(cliCtx *cli.Context, logger zerolog.Logger) (*config.Config, error) {
	cfgEnv := os.Getenv("CONFIG")
	cfgFilePath := cliCtx.String(flagConfigFilePath)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and config environment variable are both set. specify only one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		return config.FromFile(cfgFilePath)
	case cfgEnv != "":
		logger.Debug().Msg("Loading config from environment variable")
		return config.FromString(cfgEnv)
	default:
		logger.Debug().Msg("Using default config")
		return config.Default(), nil
	}
}

// newClient builds a governed client. The browser collaborator is only
// started when withBrowser is set since metadata commands never need it.
func newClient(ctx context.Context, cliCtx *cli.Context, logger zerolog.Logger, withBrowser bool) (*lucida.Client, *browserfetch.Fetcher, error) {
	cfg, err := loadConfig(cliCtx, logger)
	if nil != err {
		return nil, nil, fmt.Errorf("failed to load config: %v", err)
	}

	fetcher := browserfetch.New(
		browserfetch.Config{WarmupURL: cfg.BaseURL, Headless: true},
		logger.With().Str("component", "browser").Logger(),
	)
	if withBrowser {
		if err := fetcher.Start(ctx); nil != err {
			return nil, nil, err
		}
	}

	client, err := lucida.New(cfg, fetcher, logger)
	if nil != err {
		fetcher.Close()
		return nil, nil, err
	}
	return client, fetcher, nil
}

func runSearch(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	query := strings.TrimSpace(strings.Join(cliCtx.Args().Slice(), " "))
	if query == "" {
		return errors.New("search query is required")
	}

	logger := log.NewPretty(os.Stderr).Level(zerolog.InfoLevel)
	client, _, err := newClient(ctx, cliCtx, logger, false)
	if nil != err {
		return err
	}

	res, err := client.Search(ctx, query, cliCtx.String(flagService), cliCtx.Int(flagLimit))
	if nil != err {
		return err
	}

	if len(res.Tracks) == 0 && len(res.Albums) == 0 && len(res.Artists) == 0 {
		fmt.Println("No results.")
		return nil
	}

	if len(res.Tracks) > 0 {
		fmt.Println(renderTracks(res.Tracks))
	}
	if len(res.Albums) > 0 {
		fmt.Println(renderAlbums(res.Albums))
	}
	if len(res.Artists) > 0 {
		fmt.Println(renderArtists(res.Artists))
	}
	return nil
}

func runInfo(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	trackURL := cliCtx.Args().First()
	if trackURL == "" {
		return errors.New("track URL is required")
	}

	logger := log.NewPretty(os.Stderr).Level(zerolog.InfoLevel)
	client, _, err := newClient(ctx, cliCtx, logger, false)
	if nil != err {
		return err
	}

	track, err := client.TrackInfo(ctx, trackURL)
	if nil != err {
		return err
	}
	fmt.Println(renderTracks([]extract.Track{*track}))
	return nil
}

func runDownload(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	trackURL := cliCtx.Args().First()
	if trackURL == "" {
		return errors.New("track URL is required")
	}

	logger := log.NewPretty(os.Stderr).Level(zerolog.InfoLevel)
	client, fetcher, err := newClient(ctx, cliCtx, logger, true)
	if nil != err {
		return err
	}
	defer fetcher.Close()

	res, err := client.Download(ctx, trackURL, cliCtx.String(flagOut))
	if nil != err {
		return err
	}
	fmt.Printf("Saved %s (%d bytes)\n", res.Path, res.SizeBytes)
	return nil
}

func runServices(*cli.Context) error {
	for _, svc := range lucida.Services() {
		fmt.Println(svc)
	}
	return nil
}

func runStats(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewPretty(os.Stderr).Level(zerolog.InfoLevel)
	client, _, err := newClient(ctx, cliCtx, logger, false)
	if nil != err {
		return err
	}

	out, err := json.MarshalIndent(client.Stats(), "", "  ")
	if nil != err {
		return fmt.Errorf("failed to encode stats: %v", err)
	}
	fmt.Println(string(out))
	return nil
}

func runServe(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewPretty(os.Stdout).Level(zerolog.DebugLevel)
	cfg, err := loadConfig(cliCtx, logger)
	if nil != err {
		return fmt.Errorf("failed to load config: %v", err)
	}

	listenAddr := cfg.ListenAddr
	if addr := cliCtx.String(flagListen); addr != "" {
		listenAddr = addr
	}

	fetcher := browserfetch.New(
		browserfetch.Config{WarmupURL: cfg.BaseURL, Headless: true},
		logger.With().Str("component", "browser").Logger(),
	)
	if err := fetcher.Start(ctx); nil != err {
		return err
	}
	defer fetcher.Close()

	client, err := lucida.New(cfg, fetcher, logger)
	if nil != err {
		return err
	}

	return httpapi.New(client, listenAddr, logger).Run(ctx)
}

func renderTracks(tracks []extract.Track) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Track", "Artist", "Album", "Duration", "Quality", "URL"})
	for i, tr := range tracks {
		duration := ""
		if nil != tr.DurationSeconds {
			duration = formatDuration(*tr.DurationSeconds)
		}
		quality := ""
		if nil != tr.Quality {
			quality = *tr.Quality
		}
		t.AppendRow(table.Row{i + 1, tr.Name, tr.Artist, tr.Album, duration, quality, tr.URL})
	}
	return t.Render()
}

func renderAlbums(albums []extract.Album) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Album", "Artist", "URL"})
	for i, al := range albums {
		t.AppendRow(table.Row{i + 1, al.Name, al.Artist, al.URL})
	}
	return t.Render()
}

func renderArtists(artists []extract.Artist) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Artist", "URL"})
	for i, ar := range artists {
		t.AppendRow(table.Row{i + 1, ar.Name, ar.URL})
	}
	return t.Render()
}

func formatDuration(seconds int) string {
	return strconv.Itoa(seconds/60) + ":" + fmt.Sprintf("%02d", seconds%60)
}
