package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Provider holds the media list, most recent first, and publishes every
// change on Updates.
type Provider struct {
	baseURL string
	client  *http.Client

	mu      sync.Mutex
	list    []Descriptor
	recent  []Descriptor // added since the last Fetch landed
	updates chan []Descriptor
}

// NewProvider talks to the backend at baseURL. An empty baseURL keeps the
// provider local: uploads become file descriptors directly.
func NewProvider(baseURL string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		updates: make(chan []Descriptor, 1),
	}
}

// Client is the HTTP client shared with the Loader.
func (p *Provider) Client() *http.Client { return p.client }

// Updates delivers the full list after each change. Only the latest list is
// kept if the reader falls behind.
func (p *Provider) Updates() <-chan []Descriptor { return p.updates }

// List returns a copy of the current list.
func (p *Provider) List() []Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Descriptor(nil), p.list...)
}

// Fetch loads the initial list from GET {base}/media.
func (p *Provider) Fetch(ctx context.Context) ([]Descriptor, error) {
	if p.baseURL == "" {
		return p.List(), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/media", nil)
	if err != nil {
		return nil, fmt.Errorf("media list request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media list: status %d", resp.StatusCode)
	}

	var body struct {
		Media []wireItem `json:"media"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode media list: %w", err)
	}
	list := make([]Descriptor, 0, len(body.Media))
	for _, it := range body.Media {
		if it.URL == "" {
			continue
		}
		list = append(list, it.descriptor())
	}

	p.mu.Lock()
	p.list = mergeFetched(p.recent, list)
	p.recent = nil
	p.publishLocked()
	p.mu.Unlock()
	return append([]Descriptor(nil), list...), nil
}

// mergeFetched keeps media added while a fetch was in flight ahead of the
// fetched list, dropping any the backend already reported.
func mergeFetched(recent, fetched []Descriptor) []Descriptor {
	if len(recent) == 0 {
		return fetched
	}
	seen := make(map[string]bool, len(fetched))
	for _, d := range fetched {
		seen[d.URL] = true
	}
	keep := make([]Descriptor, 0, len(recent))
	for _, d := range recent {
		if !seen[d.URL] {
			keep = append(keep, d)
		}
	}
	return Prepend(keep, fetched)
}

// Add prepends newly available media.
func (p *Provider) Add(added []Descriptor) {
	if len(added) == 0 {
		return
	}
	p.mu.Lock()
	p.list = Prepend(added, p.list)
	p.recent = Prepend(added, p.recent)
	p.publishLocked()
	p.mu.Unlock()
}

func (p *Provider) publishLocked() {
	snapshot := append([]Descriptor(nil), p.list...)
	select {
	case <-p.updates:
	default:
	}
	p.updates <- snapshot
}

// Upload sends local files to POST {base}/upload as multipart "files" and
// prepends what the backend accepted. Without a backend the files are
// added as local descriptors.
func (p *Provider) Upload(ctx context.Context, paths []string) ([]Descriptor, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if p.baseURL == "" {
		added := make([]Descriptor, 0, len(paths))
		for _, path := range paths {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", path, err)
			}
			added = append(added, Descriptor{URL: abs, Kind: KindOfPath(abs)})
		}
		p.Add(added)
		return added, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range paths {
		if err := addFile(mw, path); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: status %d", resp.StatusCode)
	}

	var body struct {
		Uploaded []wireItem `json:"uploaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	added := make([]Descriptor, 0, len(body.Uploaded))
	for _, it := range body.Uploaded {
		if it.URL != "" {
			added = append(added, it.descriptor())
		}
	}
	p.Add(added)
	log.Printf("media: uploaded %d file(s)", len(added))
	return added, nil
}

func addFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("upload part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
