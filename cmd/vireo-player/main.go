package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	player "github.com/vireo-player/core"
	"github.com/vireo-player/core/internal/audiodevice"
	"github.com/vireo-player/core/internal/container/reisen"
	"github.com/vireo-player/core/internal/logger"
	"github.com/vireo-player/core/internal/videosurface"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	path, err := filepath.Abs(cfg.path)
	if err != nil {
		log.Error("resolve path", "error", err)
		os.Exit(1)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("%q not found.\n", path)
			os.Exit(1)
		}
		log.Error("stat media path", "error", err)
		os.Exit(1)
	}

	surface := videosurface.New()
	device := audiodevice.New()
	opener := reisen.Opener{Logger: logger.Adapter{L: log}}
	coord := player.NewCoordinator(opener, surface, device, logger.Adapter{L: log})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	info, err := coord.OpenMedia(ctx, path)
	cancel()
	if err != nil {
		log.Error("open media", "error", err, "path", path)
		os.Exit(1)
	}
	if err := coord.SetVolume(cfg.startVolume); err != nil {
		log.Warn("set initial volume", "error", err)
	}
	if err := coord.Start(); err != nil {
		log.Error("start playback", "error", err)
		os.Exit(1)
	}

	ebiten.SetWindowTitle("vireo-player - " + filepath.Base(path))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.width, cfg.height)

	game := &gameView{
		coord:     coord,
		surface:   surface,
		path:      path,
		durations: info.DurationMs,
		log:       log,
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Error("ebiten run loop exited with error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	done := make(chan struct{})
	go func() {
		if err := coord.Stop(); err != nil {
			log.Error("stop error", "error", err)
		}
		close(done)
	}()
	select {
	case <-done:
		log.Info("stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout waiting for pipeline to stop")
	}
}

// gameView is the ebiten driver: it polls the Coordinator for progress
// and drains its event channel each Update, and presents the surface's
// buffered texture each Draw.
type gameView struct {
	coord     *player.Coordinator
	surface   *videosurface.Surface
	path      string
	durations int64
	log       interface {
		Info(string, ...any)
	}
}

func (g *gameView) Layout(_, _ int) (int, int) {
	panic("Layout() should not be called when LayoutF() exists")
}

func (g *gameView) LayoutF(w, h float64) (float64, float64) {
	scaleFactor := ebiten.Monitor().DeviceScaleFactor()
	return w * scaleFactor, h * scaleFactor
}

func (g *gameView) Draw(screen *ebiten.Image) {
	g.surface.DrawInto(screen)
	g.drawGUI(screen)
}

func (g *gameView) Update() error {
	// drain events non-blockingly; only logging matters here, state is
	// polled directly below for the GUI.
drainEvents:
	for {
		select {
		case ev := <-g.coord.Events():
			g.handleEvent(ev)
		default:
			break drainEvents
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		switch g.coord.State() {
		case player.Playing:
			if err := g.coord.Pause(); err != nil {
				return err
			}
		case player.Paused:
			if err := g.coord.Resume(); err != nil {
				return err
			}
		}
	} else if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := g.coord.Stop(); err != nil {
			return err
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		fmt.Printf("Playback state: %s\n", g.coord.State())
	}

	return nil
}

func (g *gameView) handleEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventError:
		g.log.Info("pipeline error", "kind", ev.ErrKind, "message", ev.ErrMessage)
	case player.EventStateChanged:
		g.log.Info("state changed", "state", ev.State.String())
	case player.EventVoiceStateChanged:
		g.log.Info("voice state changed", "voice", ev.VoiceState.String())
	}
}

func (g *gameView) drawGUI(canvas *ebiten.Image) {
	position := g.coord.CurrentProgressSeconds()
	duration := time.Duration(g.durations) * time.Millisecond
	status := fmt.Sprintf("%s / %s (SPACE to pause, S to stop, ESC to quit) [%s]",
		durationToMMSS(time.Duration(position*float64(time.Second))),
		durationToMMSS(duration),
		g.coord.State())
	ebitenutil.DebugPrintAt(canvas, status, 8, 8)
}

func durationToMMSS(d time.Duration) string {
	millis := d.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	seconds := millis / 1000
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
