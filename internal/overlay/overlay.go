package overlay

import "time"

// HideDelay is how long a chapter card stays up after its last trigger.
const HideDelay = 1800 * time.Millisecond

type Chapter struct {
	Title    string
	Subtitle string
}

var Chapters = []Chapter{
	{Title: "Préambule — le souffle", Subtitle: "Le silence respire, la lumière naît."},
	{Title: "Tunnel — les particules s’éveillent", Subtitle: "La pulsation dessine la voie."},
	{Title: "Vortex — spirale de résonances", Subtitle: "L’image devient vibration."},
	{Title: "Paysages abstraits — horizons intérieurs", Subtitle: "Le son sculpte l’espace."},
}

// Overlay shows the active chapter card and hides it after HideDelay. It
// writes its text through a sink (the window title on desktop).
type Overlay struct {
	base    string
	sink    func(string)
	now     func() time.Time
	active  int
	visible bool
	hideAt  time.Time
	shown   string
}

// New creates a visible overlay on chapter 0. base is the text shown while
// the card is hidden.
func New(base string, sink func(string)) *Overlay {
	o := &Overlay{base: base, sink: sink, now: time.Now, visible: true}
	o.hideAt = o.now().Add(HideDelay)
	o.flush()
	return o
}

// Show activates chapter index and restarts the hide timer. Unknown indexes
// fall back to chapter 0.
func (o *Overlay) Show(index int) {
	if index < 0 || index >= len(Chapters) {
		index = 0
	}
	o.active = index
	o.visible = true
	o.hideAt = o.now().Add(HideDelay)
	o.flush()
}

// Tick hides the card once its delay has run out.
func (o *Overlay) Tick() {
	if o.visible && !o.now().Before(o.hideAt) {
		o.visible = false
		o.flush()
	}
}

func (o *Overlay) Visible() bool { return o.visible }
func (o *Overlay) Active() int { return o.active }
func (o *Overlay) Chapter() Chapter { return Chapters[o.active] }

// Text is what the sink currently shows.
func (o *Overlay) Text() string {
	if !o.visible {
		return o.base
	}
	ch := Chapters[o.active]
	return o.base + " · " + ch.Title + " · " + ch.Subtitle
}

func (o *Overlay) flush() {
	text := o.Text()
	if text == o.shown {
		return
	}
	o.shown = text
	if o.sink != nil {
		o.sink(text)
	}
}
