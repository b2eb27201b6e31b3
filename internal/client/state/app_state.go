package state

import "sync"

// View - активный раздел клиента
type View string

const (
	ViewHome    View = "home"
	ViewGallery View = "gallery"
)

// Snapshot - копия состояния для отображения
type Snapshot struct {
	CurrentView        View
	UploadPanelVisible bool
}

// AppState хранит текущий раздел и видимость панели загрузки.
// Меняется только через Navigate, ToggleUploadPanel и SetUploadPanelVisible.
type AppState struct {
	mu                 sync.RWMutex
	currentView        View
	uploadPanelVisible bool
}

func New() *AppState {
	return &AppState{currentView: ViewHome}
}

// Navigate переключает раздел. Возвращает true, если нужно обновить галерею
// (переход в Gallery). Неизвестный раздел игнорируется.
func (s *AppState) Navigate(view View) bool {
	if view != ViewHome && view != ViewGallery {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentView = view
	return view == ViewGallery
}

func (s *AppState) ToggleUploadPanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadPanelVisible = !s.uploadPanelVisible
	return s.uploadPanelVisible
}

func (s *AppState) SetUploadPanelVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadPanelVisible = visible
}

func (s *AppState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		CurrentView:        s.currentView,
		UploadPanelVisible: s.uploadPanelVisible,
	}
}

func (s *AppState) GalleryVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentView == ViewGallery
}
