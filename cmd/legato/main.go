package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"legato/internal/atomicfile"
	"legato/internal/config"
	"legato/internal/covers"
	"legato/internal/library"
	"legato/internal/metadata"
	"legato/internal/page"
	"legato/internal/viewstate"
)

var (
	configPath string
	envPath    string
)

func init() {
	flag.StringVar(&configPath, "config", "./config.toml", "path of the configuration file")
	flag.StringVar(&envPath, "env", ".env", "path of an optional .env file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] <command> [args]

Commands:
  serve                   watch the drop folder and save changes (default)
  check                   validate the library file
  upgrade                 rewrite the library file in the current format
  import <file>...        import audio files
  page [flags]            print a tracklist page
  cover [flags] <track>   write a track's cover art to a file
  play [flags] <track>    play a track and record it

Flags:
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

// app holds the opened library and its collaborators
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  *library.Store
	svc    *page.Service
	covers *covers.Cache
	view   *viewstate.Store
	audio  *metadata.Extractor
}

func openApp(cfg *config.Config, logger *logrus.Logger) (*app, error) {
	for _, dir := range []string{cfg.Library.DataDir, cfg.Library.TracksDir, filepath.Dir(cfg.Covers.DBPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	writer := atomicfile.NewOsWriter()
	store := library.NewStore(cfg.LibraryPath(), writer, logger)
	lib, err := store.Load()
	if err != nil {
		return nil, err
	}

	codec := metadata.TagCodec{}
	extractor := metadata.NewExtractor(cfg.Library.SupportedFormats, logger)
	trackFiles := metadata.NewTrackFiles(afero.NewOsFs(), cfg.Library.TracksDir, extractor, codec, logger)
	svc := page.NewService(lib, trackFiles, store, logger)

	cache, err := covers.Open(cfg.Covers.DBPath, codec, time.Duration(cfg.Covers.CacheTTLMinutes)*time.Minute, logger)
	if err != nil {
		return nil, err
	}
	svc.SetCovers(cache)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    svc,
		covers: cache,
		view:   viewstate.NewStore(cfg.Library.DataDir, writer, logger),
		audio:  extractor,
	}, nil
}

func withApp(cfg *config.Config, logger *logrus.Logger, fn func(a *app) error) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.covers.Close(); err != nil {
			logger.WithError(err).Error("Failed to close cover cache")
		}
	}()
	return fn(a)
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := config.LoadEnv(envPath); err != nil {
		logger.WithError(err).Warn("Could not load .env file")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Error("Error loading configuration")
		return 1
	}
	logger, logFile, err := cfg.Logging.NewLogger()
	if err != nil {
		logrus.WithError(err).Error("Error configuring logging")
		return 1
	}
	defer logFile.Close()

	command, args := "serve", []string(nil)
	if flag.NArg() > 0 {
		command, args = flag.Arg(0), flag.Args()[1:]
	}

	switch command {
	case "check":
		err = runCheck(cfg, os.Stdout)
	case "upgrade":
		err = runUpgrade(cfg, logger)
	case "serve", "import", "page", "cover", "play":
		err = withApp(cfg, logger, func(a *app) error {
			switch command {
			case "import":
				return a.importFiles(args)
			case "page":
				return a.printPage(args, os.Stdout)
			case "cover":
				return a.writeCover(args)
			case "play":
				return a.play(args)
			}
			return a.serve()
		})
	default:
		flag.Usage()
		return 2
	}
	if err != nil {
		logger.WithError(err).WithField("command", command).Error("Command failed")
		return 1
	}
	return 0
}
