package view

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// PageData - параметры HTML оболочки
type PageData struct {
	Title    string
	Folder   string
	PageSize int
}

// GalleryPage рендерит оболочку: навигация, home с формой загрузки, сетка галереи и область сообщений.
// Поведение (загрузка, рендер, состояние) живет в /static/js
func GalleryPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := data.Title
		if strings.TrimSpace(title) == "" {
			title = "Event Gallery"
		}
		pageSize := data.PageSize
		if pageSize <= 0 {
			pageSize = 30
		}

		var b strings.Builder
		b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`)
		b.WriteString(templ.EscapeString(title))
		b.WriteString(`</title>
<link rel="stylesheet" href="/static/css/style.css">
</head>
<body data-page-size="`)
		b.WriteString(strconv.Itoa(pageSize))
		b.WriteString(`" data-folder="`)
		b.WriteString(templ.EscapeString(data.Folder))
		b.WriteString(`">
<header class="topbar">
  <h1>`)
		b.WriteString(templ.EscapeString(title))
		b.WriteString(`</h1>
  <nav>
    <a href="#home" id="nav-home" class="nav-link active">Home</a>
    <a href="#gallery" id="nav-gallery" class="nav-link">Gallery</a>
  </nav>
</header>
<main>
  <section id="home-section" class="view">
    <button type="button" id="toggle-upload" class="btn">Upload photos</button>
    <div id="upload-panel" class="panel hidden">
      <form id="upload-form">
        <input type="file" id="file-input" name="photos" accept="image/*" multiple>
        <button type="submit" id="upload-button" class="btn primary">Upload</button>
      </form>
      <div id="upload-progress" class="upload-progress hidden" role="status" aria-live="polite">Uploading...</div>
    </div>
    <div id="message" class="message hidden" role="status"></div>
  </section>
  <section id="gallery-section" class="view hidden">
    <div id="gallery-grid" class="grid"></div>
  </section>
</main>
<script src="/static/js/gallery.js"></script>
<script src="/static/js/websocket.js"></script>
</body>
</html>
`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
