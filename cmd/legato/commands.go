package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"legato/internal/atomicfile"
	"legato/internal/config"
	"legato/internal/library"
	"legato/internal/page"
	"legato/internal/player"
	"legato/internal/sorting"
	"legato/internal/watcher"
	"legato/pkg/models"
)

const autoSaveDelay = 2 * time.Second

func (a *app) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Saving outlives the watcher so late imports are written
	saveCtx, stopSaving := context.WithCancel(context.Background())
	defer stopSaving()
	var g errgroup.Group
	g.Go(func() error { return a.svc.AutoSave(saveCtx, autoSaveDelay) })
	g.Go(func() error {
		a.pruneView(saveCtx)
		return nil
	})

	var w *watcher.Watcher
	if a.cfg.Import.WatchDropFolder {
		w = watcher.New(a.cfg.Import.DropFolder, a.svc, a.audio, watcher.Options{
			Settle:         time.Duration(a.cfg.Import.SettleMillis) * time.Millisecond,
			RemoveImported: a.cfg.Import.RemoveImported,
		}, a.logger)
		if err := w.Start(); err != nil {
			stopSaving()
			g.Wait()
			return err
		}
	}

	a.logger.WithFields(logrus.Fields{
		"library":     a.store.Path(),
		"drop_folder": a.cfg.Import.DropFolder,
		"watching":    w != nil,
	}).Info("Legato is running")
	<-ctx.Done()
	a.logger.Info("Received shutdown signal")

	if w != nil {
		if err := w.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close drop folder watcher")
		}
	}
	stopSaving()
	return g.Wait()
}

// pruneView drops deleted folders from the view options whenever the
// tracklists change
func (a *app) pruneView(ctx context.Context) {
	changes := a.svc.Subscribe()
	defer func() { a.svc.Unsubscribe(changes) }()

	prune := func() {
		details := a.svc.TrackListsDetails()
		opts := a.view.Load()
		exists := func(id string) bool {
			_, ok := details[id]
			return ok
		}
		if !opts.Prune(exists) {
			return
		}
		if err := a.view.Save(opts); err != nil {
			a.logger.WithError(err).Warn("Failed to save view options")
		}
	}
	prune()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				changes = a.svc.Subscribe()
				continue
			}
			if change.Kind == page.ChangeTrackLists {
				prune()
			}
		}
	}
}

func runCheck(cfg *config.Config, out io.Writer) error {
	data, err := os.ReadFile(cfg.LibraryPath())
	if err != nil {
		return err
	}
	lib, err := library.Decode(data)
	if err != nil {
		return err
	}
	if err := lib.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: version %s, %d tracks, %d tracklists, %d play time entries\n",
		cfg.LibraryPath(), lib.SourceVersion(), lib.TrackCount(), len(lib.TrackListIDs()), len(lib.PlayTime()))
	if lib.SourceVersion() != library.CurrentVersion {
		fmt.Fprintf(out, "run upgrade to rewrite it as version %s\n", library.CurrentVersion)
	}
	return nil
}

func runUpgrade(cfg *config.Config, logger *logrus.Logger) error {
	path := cfg.LibraryPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, upgraded, err := library.Upgrade(data)
	if err != nil {
		return err
	}
	if !upgraded {
		logger.WithField("path", path).Info("Library is already current")
		return nil
	}

	writer := atomicfile.NewOsWriter()
	backup := path + ".bak"
	if err := writer.Write(backup, data, 0644); err != nil {
		return fmt.Errorf("failed to back up library: %w", err)
	}
	if err := writer.Write(path, out, 0644); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"path":    path,
		"backup":  backup,
		"version": library.CurrentVersion,
	}).Info("Library upgraded")
	return nil
}

func (a *app) importFiles(paths []string) error {
	if len(paths) == 0 {
		return errors.New("import needs at least one file")
	}
	failed := 0
	for _, path := range paths {
		id, err := a.svc.ImportFile(path)
		if err != nil {
			a.logger.WithError(err).WithField("file_path", path).Error("Error importing file")
			failed++
			continue
		}
		fmt.Println(id)
	}
	if err := a.svc.Save(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be imported", failed, len(paths))
	}
	return nil
}

func (a *app) printPage(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("page", flag.ContinueOnError)
	var opts page.Options
	fs.StringVar(&opts.PlaylistID, "playlist", models.RootID, "tracklist to show")
	fs.StringVar(&opts.SortKey, "sort", sorting.IndexKey, "sort key")
	fs.BoolVar(&opts.SortDesc, "desc", true, "sort descending")
	fs.StringVar(&opts.FilterQuery, "filter", "", "filter query")
	fs.BoolVar(&opts.GroupAlbumTracks, "group", false, "keep album tracks together")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := a.svc.GetPage(opts)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "\t")
		return enc.Encode(p)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s), %d of %d tracks\n", p.Name, p.Kind, len(p.Entries), p.UnfilteredLength)
	fmt.Fprintln(tw, "#\tName\tArtist\tAlbum\tTime\tID")
	err = a.svc.Read(func(lib *library.Library) error {
		for i, entry := range p.Entries {
			track, err := lib.Track(entry.TrackID)
			if err != nil {
				return err
			}
			album := ""
			if track.AlbumName != nil {
				album = *track.AlbumName
			}
			length := time.Duration(track.Duration * float64(time.Second)).Round(time.Second)
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, track.Name, track.Artist, album, length, entry.TrackID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

func (a *app) writeCover(args []string) error {
	fs := flag.NewFlagSet("cover", flag.ContinueOnError)
	index := fs.Int("index", 0, "picture index")
	size := fs.Int("size", a.cfg.Covers.MaxSize, "maximum edge in pixels, 0 for the original")
	output := fs.String("o", "", "output file (default <track>.<ext>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("cover needs a track ID")
	}
	trackID := fs.Arg(0)

	cover, err := a.svc.TrackCover(trackID, *index, *size)
	if err != nil {
		return err
	}
	path := *output
	if path == "" {
		path = trackID + "." + strings.TrimPrefix(cover.MIMEType, "image/")
	}
	if err := os.WriteFile(path, cover.Data, 0644); err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{
		"track_id": trackID,
		"path":     path,
		"bytes":    len(cover.Data),
	}).Info("Cover written")
	return nil
}

// play runs the player clock for a track without audio output and records
// the result
func (a *app) play(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	seconds := fs.Float64("seconds", 0, "stop after this many seconds (default the whole track)")
	skip := fs.Bool("skip", false, "record a skip instead of a play")
	volume := fs.Float64("volume", 1, "volume from 0 to 1")
	muted := fs.Bool("mute", false, "start muted")
	shuffle := fs.Bool("shuffle", false, "shuffle the queue")
	repeat := fs.Int("repeat", 0, "repeat mode: 0 off, 1 playlist, 2 track")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("play needs a track ID")
	}
	if *repeat < 0 || *repeat > 2 {
		return fmt.Errorf("invalid repeat mode %d", *repeat)
	}
	trackID := fs.Arg(0)

	track, err := a.svc.Track(trackID)
	if err != nil {
		return err
	}
	length := time.Duration(track.Duration * float64(time.Second))
	if *seconds > 0 {
		length = min(length, time.Duration(*seconds*float64(time.Second)))
	}

	sm := player.NewStateManager(a.svc, a.svc, a.logger)
	states := sm.Subscribe()
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for state := range states {
			a.logger.WithFields(logrus.Fields{
				"track_id":    state.TrackID,
				"playing":     state.IsPlaying,
				"listened_ms": state.ListenedMs,
				"volume":      state.Volume,
				"muted":       state.IsMuted,
			}).Debug("Player state")
		}
	}()
	defer func() {
		sm.Unsubscribe(states)
		<-logged
	}()

	sm.UpdateVolume(*volume, *muted)
	sm.UpdateSettings(*shuffle, *repeat)
	if err := sm.Start(trackID); err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{
		"track":  track.Name,
		"artist": track.Artist,
		"length": length,
	}).Info("Playing")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	timer := time.NewTimer(length)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		err = sm.Stop()
	case <-timer.C:
		switch {
		case *skip:
			err = sm.Skip()
		case *seconds > 0 && length < time.Duration(track.Duration*float64(time.Second)):
			err = sm.Stop()
		default:
			err = sm.Finish()
		}
	}
	if err != nil {
		return err
	}
	return a.svc.Save()
}
