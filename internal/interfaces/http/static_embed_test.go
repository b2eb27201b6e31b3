package http

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedStaticFiles(t *testing.T) {
	for _, name := range []string{
		"static/css/style.css",
		"static/js/gallery.js",
		"static/js/websocket.js",
	} {
		if _, err := fs.ReadFile(staticFiles, name); err != nil {
			t.Fatalf("expected embedded asset %s, got error: %v", name, err)
		}
	}
}

func TestGalleryScriptLocksFormDuringUpload(t *testing.T) {
	script, err := fs.ReadFile(staticFiles, "static/js/gallery.js")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	src := string(script)

	for _, want := range []string{
		`getElementById("upload-progress")`,
		"el.fileInput.disabled = active",
		"el.uploadButton.disabled = active",
		`el.uploadProgress.classList.toggle("hidden", !active)`,
		"setUploading(true)",
		"setUploading(false)",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("expected gallery.js to contain %q", want)
		}
	}

	// Блокировка включается до запуска загрузок и снимается в finally
	start := strings.Index(src, "setUploading(true)")
	batch := strings.Index(src, "Promise.allSettled")
	finally := strings.LastIndex(src, ".finally(")
	stop := strings.Index(src, "setUploading(false)")
	if !(start < batch && batch < finally && finally < stop) {
		t.Fatalf("unexpected upload lock order: start=%d batch=%d finally=%d stop=%d", start, batch, finally, stop)
	}
}
