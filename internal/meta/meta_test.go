package meta

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestStockAgency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rights *Rights
		want   string
	}{
		{
			name:   "nil rights",
			rights: nil,
			want:   "",
		},
		{
			name:   "empty rights",
			rights: &Rights{},
			want:   "",
		},
		{
			name:   "shutterstock in copyright",
			rights: &Rights{Copyright: "Copyright Shutterstock Inc."},
			want:   "shutterstock",
		},
		{
			name:   "getty in credit",
			rights: &Rights{Credit: "Getty Images"},
			want:   "getty images",
		},
		{
			name:   "istock case insensitive",
			rights: &Rights{Copyright: "iStockPhoto.com/photographer"},
			want:   "istockphoto",
		},
		{
			name:   "alamy in source",
			rights: &Rights{Source: "Alamy Stock Photo"},
			want:   "alamy",
		},
		{
			name:   "adobe stock in dc rights",
			rights: &Rights{DCRights: "Licensed via Adobe Stock"},
			want:   "adobe stock",
		},
		{
			name: "regular photographer",
			rights: &Rights{
				Copyright: "Copyright 2024 John Smith",
				Byline:    "John Smith",
				Artist:    "John Smith",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rights.StockAgency(); got != tt.want {
				t.Errorf("StockAgency() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractEmptyData(t *testing.T) {
	t.Parallel()

	if got := Extract(nil); got != nil {
		t.Errorf("Extract(nil) = %+v, want nil", got)
	}
	if got := Extract([]byte{}); got != nil {
		t.Errorf("Extract(empty) = %+v, want nil", got)
	}
}

func TestExtractGarbageData(t *testing.T) {
	t.Parallel()

	if got := Extract([]byte("not an image at all")); got != nil {
		t.Errorf("Extract(garbage) = %+v, want nil", got)
	}
}

func TestExtractJPEGWithoutMetadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "plain.jpg")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// A bare encoder-produced JPEG carries no rights metadata.
	if got := ExtractFile(path); got != nil {
		t.Errorf("ExtractFile(plain jpeg) = %+v, want nil", got)
	}
}

func TestExtractFileMissing(t *testing.T) {
	t.Parallel()

	if got := ExtractFile(filepath.Join(t.TempDir(), "nope.jpg")); got != nil {
		t.Errorf("ExtractFile(missing) = %+v, want nil", got)
	}
}

func TestTagValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"string slice", []string{"a", "b"}, "a"},
		{"empty string slice", []string{}, ""},
		{"any slice", []any{"x", 2}, "x"},
		{"any slice non-string head", []any{42}, ""},
		{"int", 42, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tagValueString(tt.in); got != tt.want {
				t.Errorf("tagValueString(%v) = %q, want %q", tt.in, tt.want)
			}
		})
	}
}
