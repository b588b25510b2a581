package overlay

import (
	"strings"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestOverlay() (*Overlay, *clock, *[]string) {
	var shown []string
	o := New("PulseAnime", func(s string) { shown = append(shown, s) })
	c := &clock{t: time.Unix(500, 0)}
	o.now = c.now
	return o, c, &shown
}

func TestOverlayStartsOnPrelude(t *testing.T) {
	o, _, shown := newTestOverlay()
	if !o.Visible() || o.Active() != 0 {
		t.Errorf("visible = %v, active = %d", o.Visible(), o.Active())
	}
	if len(*shown) != 1 || !strings.Contains((*shown)[0], Chapters[0].Title) {
		t.Errorf("initial text = %v", *shown)
	}
}

func TestOverlayHidesAfterDelay(t *testing.T) {
	o, c, shown := newTestOverlay()
	o.Show(2)
	if o.Chapter() != Chapters[2] {
		t.Errorf("Chapter = %+v, want %+v", o.Chapter(), Chapters[2])
	}

	c.t = c.t.Add(HideDelay - time.Millisecond)
	o.Tick()
	if !o.Visible() {
		t.Fatal("hidden before the delay ran out")
	}

	c.t = c.t.Add(time.Millisecond)
	o.Tick()
	if o.Visible() {
		t.Fatal("still visible after the delay")
	}
	if last := (*shown)[len(*shown)-1]; last != "PulseAnime" {
		t.Errorf("hidden text = %q, want base title", last)
	}
}

func TestOverlayRetriggerRestartsTimer(t *testing.T) {
	o, c, _ := newTestOverlay()
	o.Show(1)
	c.t = c.t.Add(HideDelay - 100*time.Millisecond)
	o.Show(2)
	c.t = c.t.Add(HideDelay - 100*time.Millisecond)
	o.Tick()
	if !o.Visible() || o.Active() != 2 {
		t.Errorf("visible = %v, active = %d, want visible chapter 2", o.Visible(), o.Active())
	}
}

func TestOverlayUnknownChapterFallsBack(t *testing.T) {
	o, _, _ := newTestOverlay()
	o.Show(3)
	o.Show(17)
	if o.Active() != 0 {
		t.Errorf("Active = %d, want 0", o.Active())
	}
	o.Show(-1)
	if o.Active() != 0 {
		t.Errorf("Active = %d, want 0", o.Active())
	}
}

func TestOverlaySinkOnlyOnChange(t *testing.T) {
	o, c, shown := newTestOverlay()
	o.Show(0)
	o.Show(0)
	o.Tick()
	if len(*shown) != 1 {
		t.Errorf("sink called %d times, want 1", len(*shown))
	}
	c.t = c.t.Add(HideDelay)
	o.Tick()
	o.Tick()
	if len(*shown) != 2 {
		t.Errorf("sink called %d times, want 2", len(*shown))
	}
}

func TestOverlayText(t *testing.T) {
	o, _, _ := newTestOverlay()
	o.Show(1)
	want := "PulseAnime · " + Chapters[1].Title + " · " + Chapters[1].Subtitle
	if o.Text() != want {
		t.Errorf("Text = %q, want %q", o.Text(), want)
	}
	if len(Chapters) != 4 {
		t.Errorf("%d chapters, want 4", len(Chapters))
	}
}
