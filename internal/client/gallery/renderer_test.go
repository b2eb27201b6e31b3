package gallery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

type fakeSource struct {
	page       *dto.ListPhotosResponse
	listErr    error
	listCalls  int
	lastLimit  int
	lastCursor string

	payload     string
	downloadErr error
}

func (f *fakeSource) ListPhotos(_ context.Context, limit int, cursor string) (*dto.ListPhotosResponse, error) {
	f.listCalls++
	f.lastLimit = limit
	f.lastCursor = cursor
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.page, nil
}

func (f *fakeSource) Download(_ context.Context, _ string, w io.Writer) (int64, error) {
	n, err := io.Copy(w, strings.NewReader(f.payload))
	if err != nil {
		return n, err
	}
	return n, f.downloadErr
}

func newTestRenderer(source PhotoSource, out io.Writer) *Renderer {
	r := NewRenderer(source, out, 30, logger.NewWithOutput("error", io.Discard, false))
	r.location = time.UTC
	return r
}

func TestRefreshRendersFirstPageOnly(t *testing.T) {
	cursor := "next"
	source := &fakeSource{page: &dto.ListPhotosResponse{
		Success: true,
		Photos: []dto.PhotoDescriptor{
			{PublicID: "g/b", FileName: "b.jpg", ImageURL: "https://cdn/b.jpg", CreatedAt: "2024-06-01T10:00:00Z"},
			{PublicID: "g/a", ImageURL: "https://cdn/a.jpg", CreatedAt: "2024-06-01T09:00:00Z"},
		},
		NextCursor: &cursor,
		TotalCount: 5,
	}}
	var out bytes.Buffer
	r := newTestRenderer(source, &out)

	require.NoError(t, r.Refresh(context.Background()))
	require.NoError(t, r.Refresh(context.Background()))

	assert.Equal(t, 2, source.listCalls)
	assert.Empty(t, source.lastCursor, "refresh must always start from the first page")
	assert.Equal(t, 30, source.lastLimit)
	assert.Len(t, r.Rendered(), 2)
	assert.Contains(t, out.String(), "b.jpg (01 Jun 2024 10:00)")
	assert.Contains(t, out.String(), "g/a (01 Jun 2024 09:00)")
}

func TestRefreshShowsPlaceholderForEmptyGallery(t *testing.T) {
	source := &fakeSource{page: &dto.ListPhotosResponse{Success: true, Photos: []dto.PhotoDescriptor{}}}
	var out bytes.Buffer

	require.NoError(t, newTestRenderer(source, &out).Refresh(context.Background()))
	assert.Equal(t, placeholderMessage+"\n", out.String())
}

func TestRefreshErrorClearsPreviousRender(t *testing.T) {
	source := &fakeSource{page: &dto.ListPhotosResponse{Success: true, Photos: []dto.PhotoDescriptor{{PublicID: "g/a"}}}}
	var out bytes.Buffer
	r := newTestRenderer(source, &out)
	require.NoError(t, r.Refresh(context.Background()))

	source.listErr = errors.New("connection refused")
	out.Reset()
	err := r.Refresh(context.Background())

	require.Error(t, err)
	assert.Empty(t, r.Rendered())
	assert.Equal(t, 2, source.listCalls, "no automatic retry")
	assert.Contains(t, out.String(), "Error loading photos: connection refused")
}

func TestDownloadWritesFileAndRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{payload: "jpeg-bytes"}
	r := newTestRenderer(source, io.Discard)

	target, err := r.Download(context.Background(), dto.PhotoDescriptor{
		PublicID: "g/party",
		ImageURL: "https://cdn/g/party.png?sig=1",
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "party.png"), target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadFailureLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{payload: "partial", downloadErr: errors.New("connection reset")}
	r := newTestRenderer(source, io.Discard)

	_, err := r.Download(context.Background(), dto.PhotoDescriptor{PublicID: "g/a", FileName: "a.jpg", ImageURL: "https://cdn/a.jpg"}, dir)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadNameIsSanitized(t *testing.T) {
	assert.Equal(t, "passwd", downloadName(dto.PhotoDescriptor{FileName: "../../etc/passwd"}))
	assert.Equal(t, "photo1.jpg", downloadName(dto.PhotoDescriptor{FileName: "photo1.jpg", ImageURL: "https://cdn/x.png"}))
	assert.Equal(t, "photo", downloadName(dto.PhotoDescriptor{}))
}
