package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/internal/client/gallery"
	"github.com/dreschagin/event-gallery/internal/client/galleryapi"
	"github.com/dreschagin/event-gallery/internal/client/orchestrator"
	"github.com/dreschagin/event-gallery/internal/client/state"
	"github.com/dreschagin/event-gallery/pkg/config"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

const defaultAPIURL = "http://localhost:8080"

// app связывает API клиент, рендерер, оркестратор и состояние для одной команды
type app struct {
	out          io.Writer
	log          *logger.Logger
	client       *galleryapi.Client
	renderer     *gallery.Renderer
	orchestrator *orchestrator.UploadOrchestrator
	state        *state.AppState
}

func newApp(cmd *cobra.Command) *app {
	apiURL, _ := cmd.Flags().GetString("api-url")
	if strings.TrimSpace(apiURL) == "" {
		apiURL = config.GetEnv("GALLERY_API_URL", defaultAPIURL)
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log := logger.NewWithOutput(level, os.Stderr, true)

	out := cmd.OutOrStdout()
	client := galleryapi.NewClient(apiURL)
	appState := state.New()
	renderer := gallery.NewRenderer(client, out, 0, log)

	a := &app{
		out:      out,
		log:      log,
		client:   client,
		renderer: renderer,
		state:    appState,
	}
	// после пакета загрузок галерея перерисовывается только если она открыта
	a.orchestrator = orchestrator.New(client, galleryRefresher{a}, func() {
		appState.SetUploadPanelVisible(false)
	}, log)
	return a
}

type galleryRefresher struct {
	app *app
}

func (r galleryRefresher) Refresh(ctx context.Context) error {
	if !r.app.state.GalleryVisible() {
		return nil
	}
	return r.app.renderer.Refresh(ctx)
}

func (a *app) upload(ctx context.Context, paths []string) error {
	summary, err := a.orchestrator.Run(ctx, paths)
	if errors.Is(err, orchestrator.ErrNoFilesSelected) {
		fmt.Fprintf(a.out, "[%s] %s\n", summary.Level, summary.Message)
		return err
	}
	if err != nil {
		return err
	}

	for _, result := range summary.Results {
		if result.Err != nil {
			fmt.Fprintf(a.out, "  FAIL %s: %v\n", result.Path, result.Err)
		} else {
			fmt.Fprintf(a.out, "  ok   %s -> %s\n", result.Path, result.PublicID)
		}
	}
	fmt.Fprintf(a.out, "[%s] %s\n", summary.Level, summary.Message)
	return nil
}

// findPhoto проходит страницы листинга, пока не найдет public id
func (a *app) findPhoto(ctx context.Context, publicID string) (dto.PhotoDescriptor, error) {
	if photo, ok := a.renderer.Find(publicID); ok {
		return photo, nil
	}

	cursor := ""
	for {
		page, err := a.client.ListPhotos(ctx, 100, cursor)
		if err != nil {
			return dto.PhotoDescriptor{}, err
		}
		for _, photo := range page.Photos {
			if photo.PublicID == publicID {
				return photo, nil
			}
		}
		if page.NextCursor == nil || *page.NextCursor == "" {
			return dto.PhotoDescriptor{}, fmt.Errorf("photo %s not found", publicID)
		}
		cursor = *page.NextCursor
	}
}
