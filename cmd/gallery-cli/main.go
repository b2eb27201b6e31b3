package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gallery-cli",
	Short: "Event Gallery CLI - upload and browse event photos",
	Long: `gallery-cli talks to a running Event Gallery API.

Examples:
  gallery-cli upload ./party/*.jpg
  gallery-cli gallery
  gallery-cli pages --limit 50
  gallery-cli download gallery_uploads/photo1 --dir ./downloads
  gallery-cli browse

The API address is taken from --api-url or GALLERY_API_URL.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(browseCmd)

	rootCmd.PersistentFlags().String("api-url", "", "Gallery API base URL (default $GALLERY_API_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}
