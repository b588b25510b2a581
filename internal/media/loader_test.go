package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, err := Decode(encodePNG(t, 32, 18))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 18 {
		t.Errorf("bounds = %v, want 32x18", b)
	}
	if c := img.RGBAAt(3, 4); c.R != 3 || c.G != 4 || c.B != 200 || c.A != 255 {
		t.Errorf("pixel (3,4) = %v", c)
	}
}

func TestDecodeDownscales(t *testing.T) {
	img, err := Decode(encodePNG(t, MaxTextureSize*2, 100))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != MaxTextureSize || b.Dy() != 50 {
		t.Errorf("bounds = %v, want %dx50", b, MaxTextureSize)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	if _, err := Decode([]byte("definitely not an image")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestLoaderResolve(t *testing.T) {
	l := NewLoader("http://backend:8000/", nil, "")
	cases := map[string]string{
		"https://cdn.example/a.png": "https://cdn.example/a.png",
		"/media/a.png":              "http://backend:8000/media/a.png",
		"media/a.png":               "http://backend:8000/media/a.png",
		"file:///tmp/a.png":         "/tmp/a.png",
	}
	for in, want := range cases {
		if got := l.Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}

	local := NewLoader("", nil, "")
	if got := local.Resolve("/tmp/a.png"); got != "/tmp/a.png" {
		t.Errorf("local Resolve = %q", got)
	}
}

func TestLoaderLoadHTTP(t *testing.T) {
	data := encodePNG(t, 20, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, srv.Client(), "")
	img, err := l.Load(context.Background(), Descriptor{URL: "/media/a.png"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("bounds = %v", b)
	}

	if _, err := l.Load(context.Background(), Descriptor{URL: "/media/missing.png"}); err == nil {
		t.Error("expected error for 404")
	}
}

func TestLoaderLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, encodePNG(t, 6, 6), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader("", nil, "")
	img, err := l.Load(context.Background(), Descriptor{URL: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != 6 {
		t.Errorf("width = %d, want 6", img.Bounds().Dx())
	}
}

func TestLoaderLoadCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, encodePNG(t, 6, 6), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader("", nil, "")
	if _, err := l.Load(ctx, Descriptor{URL: path}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoaderVideoWithoutFFmpeg(t *testing.T) {
	l := NewLoader("", nil, filepath.Join(t.TempDir(), "no-ffmpeg-here"))
	if _, err := l.Load(context.Background(), Descriptor{URL: "/tmp/clip.mp4", Kind: KindVideo}); err == nil {
		t.Error("expected error when ffmpeg is missing")
	}
}
