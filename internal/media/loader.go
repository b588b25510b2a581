package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxTextureSize caps the longest texture edge; larger media is scaled down.
const MaxTextureSize = 2048

// maxDownload bounds a single media fetch.
const maxDownload = 64 << 20

// Loader fetches media and decodes it into texture pixels. Video becomes a
// still poster frame pulled with ffmpeg.
type Loader struct {
	baseURL string
	client  *http.Client
	ffmpeg  string
}

func NewLoader(baseURL string, client *http.Client, ffmpeg string) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Loader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		ffmpeg:  ffmpeg,
	}
}

// Resolve turns a descriptor URL into something fetchable: absolute URLs
// pass through, local paths stay paths, the rest hang off the backend.
func (l *Loader) Resolve(url string) string {
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return url
	case strings.HasPrefix(url, "file://"):
		return strings.TrimPrefix(url, "file://")
	case filepath.IsAbs(url), l.baseURL == "":
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return l.baseURL + url
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load decodes d into RGBA pixels, honoring ctx throughout.
func (l *Loader) Load(ctx context.Context, d Descriptor) (*image.RGBA, error) {
	src := l.Resolve(d.URL)
	var data []byte
	var err error
	if d.Kind == KindVideo {
		data, err = l.posterFrame(ctx, src)
	} else {
		data, err = l.fetch(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(data)
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if !isRemote(src) {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}
		return data, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", src, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	return data, nil
}

// posterFrame asks ffmpeg for the first video frame as PNG.
func (l *Loader) posterFrame(ctx context.Context, src string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, l.ffmpeg,
		"-i", src,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-loglevel", "error",
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg poster %s: %w", src, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg poster %s: %w", src, ErrUnsupported)
	}
	return out, nil
}

// Decode turns encoded image bytes into RGBA, scaled so neither edge
// exceeds MaxTextureSize.
func Decode(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode image: empty bounds: %w", ErrUnsupported)
	}

	w, h := b.Dx(), b.Dy()
	if w > MaxTextureSize || h > MaxTextureSize {
		if w >= h {
			h = max(1, h*MaxTextureSize/w)
			w = MaxTextureSize
		} else {
			w = max(1, w*MaxTextureSize/h)
			h = MaxTextureSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst, nil
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == w*4 && b.Min == (image.Point{}) {
		return rgba, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}
