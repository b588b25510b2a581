package scene

import "fmt"

// SceneParameters is the state the timeline writes and the frame update
// reads.
type SceneParameters struct {
	TunnelSpeed  float64
	TunnelRadius float64
	VortexSpin   float64
	ParallaxGain float64
	CameraZ      float64
	Reveal       float64
}

// BaselineParameters are the values before any scroll.
func BaselineParameters() SceneParameters {
	return SceneParameters{
		TunnelSpeed:  0.5,
		TunnelRadius: 2.1,
		VortexSpin:   0.2,
		ParallaxGain: 0.6,
		CameraZ:      CameraStartZ,
		Reveal:       0,
	}
}

func (p *SceneParameters) field(k Param) *float64 {
	switch k {
	case ParamTunnelSpeed:
		return &p.TunnelSpeed
	case ParamTunnelRadius:
		return &p.TunnelRadius
	case ParamVortexSpin:
		return &p.VortexSpin
	case ParamParallax:
		return &p.ParallaxGain
	case ParamCameraZ:
		return &p.CameraZ
	case ParamReveal:
		return &p.Reveal
	}
	panic(fmt.Sprintf("scene: unknown param %d", k))
}

// ChapterState is the active chapter, read by overlays.
type ChapterState struct {
	ActiveIndex int
}

// ProgressFromOffset maps a scroll offset onto [0,1] over distance.
func ProgressFromOffset(offset, distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return clampF(offset/distance, 0, 1)
}

type ramp struct {
	param      Param
	start, end float64
	from, to   float64
}

type boundary struct {
	at      float64
	chapter int
}

// Timeline is a compiled Script. The parameter curve is a pure function of
// progress; chapter changes are the only state it keeps.
type Timeline struct {
	ramps      []ramp
	boundaries []boundary
	total      float64
	baseline   SceneParameters

	bus     *EventBus
	started bool
	pos     int // index into boundaries of the active chapter, -1 before any
	params  SceneParameters
}

// NewTimeline compiles s. Chapter events are emitted on bus (may be nil).
func NewTimeline(s Script, bus *EventBus) (*Timeline, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	tl := &Timeline{baseline: BaselineParameters(), bus: bus, pos: -1}

	last := tl.baseline
	cursor := 0.0
	for _, st := range s.Steps {
		if st.Chapter != nil {
			tl.boundaries = append(tl.boundaries, boundary{at: cursor, chapter: *st.Chapter})
			continue
		}
		for _, name := range st.sortedTargets() {
			k := paramNames[name]
			f := last.field(k)
			tl.ramps = append(tl.ramps, ramp{
				param: k,
				start: cursor,
				end:   cursor + st.Duration,
				from:  *f,
				to:    st.To[name],
			})
			*f = st.To[name]
		}
		cursor += st.Duration
	}
	tl.total = cursor
	if len(tl.boundaries) == 0 || tl.boundaries[0].at > 0 {
		// Progress before the first marker still needs a chapter.
		tl.boundaries = append([]boundary{{at: 0, chapter: 0}}, tl.boundaries...)
	}
	tl.params = tl.baseline
	return tl, nil
}

// Duration is the summed length of all ramps.
func (tl *Timeline) Duration() float64 { return tl.total }

// Evaluate returns the parameters at progress p without side effects.
func (tl *Timeline) Evaluate(p float64) SceneParameters {
	t := clampF(p, 0, 1) * tl.total
	out := tl.baseline
	for _, r := range tl.ramps {
		if t <= r.start && r.end > r.start {
			continue
		}
		f := out.field(r.param)
		if t >= r.end {
			*f = r.to
			continue
		}
		*f = lerp(r.from, r.to, easeOutQuad((t-r.start)/(r.end-r.start)))
	}
	return out
}

// chapterPos returns the boundary index active at progress p.
func (tl *Timeline) chapterPos(p float64) int {
	t := clampF(p, 0, 1) * tl.total
	pos := 0
	for i, b := range tl.boundaries {
		if b.at <= t {
			pos = i
		}
	}
	return pos
}

// ChapterAt returns the chapter index active at progress p.
func (tl *Timeline) ChapterAt(p float64) int {
	return tl.boundaries[tl.chapterPos(p)].chapter
}

// Scrub moves the playhead to p, updates the parameters and emits a chapter
// event for every chapter boundary crossed, in crossing order.
func (tl *Timeline) Scrub(p float64) SceneParameters {
	tl.params = tl.Evaluate(p)
	next := tl.chapterPos(p)

	if !tl.started {
		tl.started = true
		for i := 0; i <= next; i++ {
			tl.emit(i)
		}
		tl.pos = next
		return tl.params
	}
	for tl.pos < next {
		tl.pos++
		tl.emit(tl.pos)
	}
	for tl.pos > next {
		tl.pos--
		tl.emit(tl.pos)
	}
	return tl.params
}

func (tl *Timeline) emit(pos int) {
	if tl.bus == nil {
		return
	}
	tl.bus.Emit(Event{Type: EventChapter, Chapter: tl.boundaries[pos].chapter})
}

// Started reports whether Scrub has run at least once.
func (tl *Timeline) Started() bool { return tl.started }

// Params returns the parameters of the last Scrub.
func (tl *Timeline) Params() SceneParameters { return tl.params }

func (tl *Timeline) Chapter() ChapterState {
	if tl.pos < 0 {
		return ChapterState{ActiveIndex: tl.boundaries[0].chapter}
	}
	return ChapterState{ActiveIndex: tl.boundaries[tl.pos].chapter}
}
