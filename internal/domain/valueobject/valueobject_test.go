package valueobject

import "testing"

func TestSuggestPublicID(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"photo1.jpg", "photo1"},
		{"a.b.png", "a.b"},
		{"archive.tar.gz", "archive.tar"},
		{".jpg", ""},
		{"", ""},
		{"  noext  ", "noext"},
		{"C:\\Users\\guest\\IMG_0001.HEIC", "IMG_0001"},
		{"dir/sub/party.jpeg", "party"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			if got := SuggestPublicID(tt.fileName); got != tt.want {
				t.Fatalf("SuggestPublicID(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestNewPhotoPayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain base64", raw: "AAAA", want: "AAAA"},
		{name: "data uri", raw: "data:image/png;base64,iVBOR", want: "iVBOR"},
		{name: "last marker wins", raw: "data:x;base64,junk;base64,QUJD", want: "QUJD"},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace", raw: "   ", wantErr: true},
		{name: "header only", raw: "data:image/jpeg;base64,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := NewPhotoPayload(tt.raw)
			if tt.wantErr {
				if err != ErrEmptyPayload {
					t.Fatalf("expected ErrEmptyPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if payload.Base64() != tt.want {
				t.Fatalf("Base64() = %q, want %q", payload.Base64(), tt.want)
			}
		})
	}
}

func TestCursor(t *testing.T) {
	if !NewCursor("  ").IsEnd() {
		t.Fatal("blank cursor must mean end of listing")
	}
	if NewCursor("").Ptr() != nil {
		t.Fatal("end cursor must serialize as null")
	}

	c := NewCursor(" abc123 ")
	if c.IsEnd() || c.String() != "abc123" {
		t.Fatalf("unexpected cursor %q", c.String())
	}
	if p := c.Ptr(); p == nil || *p != "abc123" {
		t.Fatal("expected pointer to token")
	}
}
