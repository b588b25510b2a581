package scene

import (
	"math"
	"slices"
	"testing"
)

func chapterRecorder(bus *EventBus) *[]int {
	var got []int
	bus.Subscribe(EventChapter, func(e Event) { got = append(got, e.Chapter) })
	return &got
}

func newDefaultTimeline(t *testing.T) (*Timeline, *[]int) {
	t.Helper()
	bus := NewEventBus()
	got := chapterRecorder(bus)
	tl, err := NewTimeline(DefaultScript(), bus)
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	return tl, got
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTimelineDuration(t *testing.T) {
	tl, _ := newDefaultTimeline(t)
	if !near(tl.Duration(), 4.0) {
		t.Errorf("Duration = %v, want 4.0", tl.Duration())
	}
}

func TestTimelineEndpoints(t *testing.T) {
	tl, _ := newDefaultTimeline(t)

	if got := tl.Evaluate(0); got != BaselineParameters() {
		t.Errorf("Evaluate(0) = %+v, want baseline %+v", got, BaselineParameters())
	}

	end := tl.Evaluate(1)
	want := SceneParameters{
		TunnelSpeed:  0.8,
		TunnelRadius: 3.0,
		VortexSpin:   0.8,
		ParallaxGain: 0.6,
		CameraZ:      -6.5,
		Reveal:       1,
	}
	if end != want {
		t.Errorf("Evaluate(1) = %+v, want %+v", end, want)
	}

	// Out-of-range progress clamps.
	if tl.Evaluate(-0.5) != tl.Evaluate(0) {
		t.Error("Evaluate(-0.5) differs from Evaluate(0)")
	}
	if tl.Evaluate(7) != end {
		t.Error("Evaluate(7) differs from Evaluate(1)")
	}
}

func TestTimelineEvaluateDeterministic(t *testing.T) {
	tl, _ := newDefaultTimeline(t)
	a := tl.Evaluate(0.5)
	tl.Scrub(0.9)
	tl.Scrub(0.1)
	b := tl.Evaluate(0.5)
	if a != b {
		t.Fatalf("Evaluate(0.5) changed after scrubbing: %+v vs %+v", a, b)
	}

	// t = 2.0s is 2/3 into the second ramp (1.2s..2.4s).
	k := easeOutQuad(0.8 / 1.2)
	if want := 0.2 + (0.8-0.2)*k; !near(a.VortexSpin, want) {
		t.Errorf("VortexSpin = %v, want %v", a.VortexSpin, want)
	}
	if want := 2.2 + (-3.5-2.2)*k; !near(a.CameraZ, want) {
		t.Errorf("CameraZ = %v, want %v", a.CameraZ, want)
	}
	// First ramp is complete, the third has not started.
	if !near(a.TunnelSpeed, 1.4) || !near(a.TunnelRadius, 3.0) || a.Reveal != 0 {
		t.Errorf("params at 0.5 = %+v", a)
	}
}

func TestTimelineCameraZMonotonic(t *testing.T) {
	tl, _ := newDefaultTimeline(t)
	prev := tl.Evaluate(0).CameraZ
	for i := 1; i <= 400; i++ {
		z := tl.Evaluate(float64(i) / 400).CameraZ
		if z > prev+1e-12 {
			t.Fatalf("CameraZ rose from %v to %v at step %d", prev, z, i)
		}
		prev = z
	}
}

func TestTimelineForwardChapters(t *testing.T) {
	tl, got := newDefaultTimeline(t)
	for i := 0; i <= 100; i++ {
		tl.Scrub(float64(i) / 100)
	}
	if want := []int{0, 1, 2, 3}; !slices.Equal(*got, want) {
		t.Errorf("chapters = %v, want %v", *got, want)
	}
	if tl.Chapter().ActiveIndex != 3 {
		t.Errorf("ActiveIndex = %d, want 3", tl.Chapter().ActiveIndex)
	}
}

func TestTimelineSameChapterNoEvent(t *testing.T) {
	tl, got := newDefaultTimeline(t)
	tl.Scrub(0.05)
	tl.Scrub(0.1)
	tl.Scrub(0.2)
	if want := []int{0}; !slices.Equal(*got, want) {
		t.Errorf("chapters = %v, want %v", *got, want)
	}
}

func TestTimelineBackwardChapters(t *testing.T) {
	tl, got := newDefaultTimeline(t)
	tl.Scrub(1)
	*got = (*got)[:0]

	for i := 100; i >= 0; i-- {
		tl.Scrub(float64(i) / 100)
	}
	if want := []int{2, 1, 0}; !slices.Equal(*got, want) {
		t.Errorf("chapters = %v, want %v", *got, want)
	}
}

func TestTimelineJumpEmitsIntermediate(t *testing.T) {
	tl, got := newDefaultTimeline(t)
	tl.Scrub(0)
	tl.Scrub(1)
	if want := []int{0, 1, 2, 3}; !slices.Equal(*got, want) {
		t.Errorf("chapters = %v, want %v", *got, want)
	}
}

func TestTimelineFirstScrubMidway(t *testing.T) {
	tl, got := newDefaultTimeline(t)
	tl.Scrub(0.7) // t = 2.8s, inside chapter 2
	if want := []int{0, 1, 2}; !slices.Equal(*got, want) {
		t.Errorf("chapters = %v, want %v", *got, want)
	}
}

func TestTimelineChapterBeforeScrub(t *testing.T) {
	tl, got := newDefaultTimeline(t)
	if tl.Started() {
		t.Error("Started before any scrub")
	}
	if tl.Chapter().ActiveIndex != 0 {
		t.Errorf("ActiveIndex = %d, want 0", tl.Chapter().ActiveIndex)
	}
	if len(*got) != 0 {
		t.Errorf("events before scrub: %v", *got)
	}
}

func TestProgressFromOffset(t *testing.T) {
	cases := []struct {
		offset, distance, want float64
	}{
		{0, 3200, 0},
		{1600, 3200, 0.5},
		{3200, 3200, 1},
		{5000, 3200, 1},
		{-10, 3200, 0},
		{100, 0, 0},
	}
	for _, c := range cases {
		if got := ProgressFromOffset(c.offset, c.distance); !near(got, c.want) {
			t.Errorf("ProgressFromOffset(%v, %v) = %v, want %v", c.offset, c.distance, got, c.want)
		}
	}
}

func TestParseScript(t *testing.T) {
	src := `
steps:
  - chapter: 0
  - duration: 2
    to:
      tunnelSpeed: 3
      reveal: 0.5
  - chapter: 1
`
	s, err := ParseScript([]byte(src))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	tl, err := NewTimeline(s, nil)
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	if !near(tl.Duration(), 2) {
		t.Errorf("Duration = %v, want 2", tl.Duration())
	}
	end := tl.Evaluate(1)
	if !near(end.TunnelSpeed, 3) || !near(end.Reveal, 0.5) {
		t.Errorf("Evaluate(1) = %+v", end)
	}
	if tl.ChapterAt(0.5) != 0 || tl.ChapterAt(1) != 1 {
		t.Errorf("ChapterAt = %d/%d, want 0/1", tl.ChapterAt(0.5), tl.ChapterAt(1))
	}
}

func TestParseScriptRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          `steps: []`,
		"unknown param":  "steps:\n  - duration: 1\n    to: {warp: 2}",
		"zero duration":  "steps:\n  - duration: 0\n    to: {reveal: 1}",
		"no targets":     "steps:\n  - duration: 1",
		"chapter ramp":   "steps:\n  - chapter: 0\n    duration: 1",
		"repeat chapter": "steps:\n  - chapter: 1\n  - duration: 1\n    to: {reveal: 1}\n  - chapter: 1",
		"negative":       "steps:\n  - chapter: -1",
		"bad yaml":       "steps: [",
	}
	for name, src := range cases {
		if _, err := ParseScript([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestScriptWithoutLeadingChapter(t *testing.T) {
	s := Script{Steps: []ScriptStep{
		{Duration: 1, To: map[string]float64{"cameraZ": 0}},
		chapterStep(1),
	}}
	bus := NewEventBus()
	got := chapterRecorder(bus)
	tl, err := NewTimeline(s, bus)
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	tl.Scrub(0.5)
	tl.Scrub(1)
	if want := []int{0, 1}; !slices.Equal(*got, want) {
		t.Errorf("chapters = %v, want %v", *got, want)
	}
}

func TestDefaultScriptValid(t *testing.T) {
	if err := DefaultScript().Validate(); err != nil {
		t.Fatalf("DefaultScript invalid: %v", err)
	}
}
