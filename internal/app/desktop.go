package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"pulseanime/internal/audio"
	"pulseanime/internal/audio/ingest"
	"pulseanime/internal/config"
	"pulseanime/internal/media"
	"pulseanime/internal/overlay"
	"pulseanime/internal/render"
	"pulseanime/internal/scene"
)

// Run opens the window and drives the scene until the window closes or ctx
// is canceled. GL work stays on the calling goroutine's locked thread.
func Run(ctx context.Context, cfg config.Config) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var script *scene.Script
	if cfg.TimelinePath != "" {
		s, err := scene.LoadScript(cfg.TimelinePath)
		if err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
		script = &s
	}

	window, err := initWindow(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.MULTISAMPLE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	// Microphone ingest.
	analyzer, err := audio.NewAnalyzer()
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	var mic *ingest.Server
	var srv *http.Server
	if cfg.AudioAddr != "" {
		mic = ingest.New(analyzer)
		srv = &http.Server{
			Addr:              cfg.AudioAddr,
			Handler:           mic.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("audio: ingest server: %v", err)
			}
		}()
		log.Printf("audio: microphone page on http://localhost%s", displayPort(cfg.AudioAddr))
	}

	// Media.
	provider := media.NewProvider(cfg.BackendURL, cfg.FetchTimeout)
	loader := media.NewLoader(cfg.BackendURL, provider.Client(), cfg.FFmpegPath)

	dev, err := render.NewDevice()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	winW, _ := window.GetSize()
	fbW, fbH := window.GetFramebufferSize()
	particles, mediaWindow := scene.ViewportClass(winW)
	engine, err := scene.NewEngine(dev, analyzer, loader, scene.Options{
		Width:          fbW,
		Height:         fbH,
		Seed:           cfg.Seed,
		ScrollDistance: cfg.ScrollDistance,
		Script:         script,
		ParticleCount:  particles,
		MediaWindow:    mediaWindow,
	})
	if err != nil {
		dev.Destroy()
		return fmt.Errorf("scene: %w", err)
	}

	ov := overlay.New(windowTitle, window.SetTitle)
	engine.AttachSource(engine.Bus().Subscribe(scene.EventChapter, func(e scene.Event) {
		ov.Show(e.Chapter)
	}))

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	go func() {
		list, err := provider.Fetch(bgCtx)
		if err != nil {
			if bgCtx.Err() == nil {
				log.Printf("media: %v", err)
			}
			return
		}
		log.Printf("media: %d items", len(list))
	}()

	bindInput(window, engine, cfg.ScrollStep, func(paths []string) {
		go func() {
			if _, err := provider.Upload(bgCtx, paths); err != nil {
				log.Printf("media: upload: %v", err)
			}
		}()
	})

	last := glfw.GetTime()
	for !window.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > 0.1 {
			dt = 0.1
		}

		glfw.PollEvents()

		select {
		case list := <-provider.Updates():
			engine.SetMediaList(list)
		default:
		}

		engine.Frame(dt)
		ov.Tick()
		window.SwapBuffers()
	}

	// Teardown: stop background work, release the scene, then the ingest.
	cancelBg()
	if err := engine.Close(); err != nil {
		log.Printf("scene: %v", err)
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("audio: shutdown: %v", err)
		}
		if err := mic.Close(); err != nil {
			log.Printf("audio: close: %v", err)
		}
	}
	return nil
}

// displayPort turns a listen address like ":8090" or "0.0.0.0:8090" into
// ":8090" for the log line.
func displayPort(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
