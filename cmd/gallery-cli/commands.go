package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dreschagin/event-gallery/internal/client/state"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload one or more photos concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newApp(cmd).upload(cmd.Context(), args)
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Show the first page of the gallery",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApp(cmd)
		a.state.Navigate(state.ViewGallery)
		return a.renderer.Refresh(cmd.Context())
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Walk every listing page until the end of the gallery",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApp(cmd)
		limit, _ := cmd.Flags().GetInt("limit")

		cursor := ""
		for pageNo := 1; ; pageNo++ {
			page, err := a.client.ListPhotos(cmd.Context(), limit, cursor)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "--- page %d (%d photos, total_count %d) ---\n", pageNo, len(page.Photos), page.TotalCount)
			for _, photo := range page.Photos {
				fmt.Fprintf(a.out, "%s\t%s\n", photo.PublicID, a.renderer.Caption(photo))
			}
			if page.NextCursor == nil || *page.NextCursor == "" {
				return nil
			}
			cursor = *page.NextCursor
		}
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <publicId>",
	Short: "Download a photo by its public id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd)
		dir, _ := cmd.Flags().GetString("dir")

		photo, err := a.findPhoto(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		target, err := a.renderer.Download(cmd.Context(), photo, dir)
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		fmt.Fprintf(a.out, "saved %s\n", target)
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive session: home, gallery, toggle-upload, upload <files>, download <id>, quit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApp(cmd)
		ctx := cmd.Context()
		scanner := bufio.NewScanner(cmd.InOrStdin())

		a.printPrompt()
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				a.printPrompt()
				continue
			}

			switch fields[0] {
			case "home":
				a.state.Navigate(state.ViewHome)
				fmt.Fprintln(a.out, "Welcome to the event gallery.")
			case "gallery":
				if a.state.Navigate(state.ViewGallery) {
					_ = a.renderer.Refresh(ctx)
				}
			case "toggle-upload":
				a.state.ToggleUploadPanel()
			case "upload":
				if !a.state.Snapshot().UploadPanelVisible {
					fmt.Fprintln(a.out, "Upload panel is hidden, run toggle-upload first.")
					break
				}
				_ = a.upload(ctx, fields[1:])
			case "download":
				if len(fields) < 2 {
					fmt.Fprintln(a.out, "usage: download <publicId>")
					break
				}
				photo, err := a.findPhoto(ctx, fields[1])
				if err == nil {
					var target string
					target, err = a.renderer.Download(ctx, photo, ".")
					if err == nil {
						fmt.Fprintf(a.out, "saved %s\n", target)
					}
				}
				if err != nil {
					fmt.Fprintf(a.out, "Download failed: %v\n", err)
				}
			case "quit", "exit":
				return nil
			default:
				fmt.Fprintf(a.out, "unknown command %q\n", fields[0])
			}
			a.printPrompt()
		}
		return scanner.Err()
	},
}

func (a *app) printPrompt() {
	snapshot := a.state.Snapshot()
	panel := "hidden"
	if snapshot.UploadPanelVisible {
		panel = "visible"
	}
	fmt.Fprintf(a.out, "[%s | upload panel %s]> ", snapshot.CurrentView, panel)
}

func init() {
	pagesCmd.Flags().Int("limit", 30, "Page size requested from the API")
	downloadCmd.Flags().String("dir", ".", "Directory to save the photo into")
}
