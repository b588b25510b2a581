package scene

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Param names a timeline-driven scene parameter.
type Param int

const (
	ParamTunnelSpeed Param = iota
	ParamTunnelRadius
	ParamVortexSpin
	ParamParallax
	ParamCameraZ
	ParamReveal
)

var paramNames = map[string]Param{
	"tunnelSpeed":  ParamTunnelSpeed,
	"tunnelRadius": ParamTunnelRadius,
	"vortexSpin":   ParamVortexSpin,
	"parallax":     ParamParallax,
	"cameraZ":      ParamCameraZ,
	"reveal":       ParamReveal,
}

// Script is the scroll timeline as authored: steps play one after another,
// a chapter step marks a point, a ramp step lasts Duration and moves every
// parameter in To concurrently.
type Script struct {
	Steps []ScriptStep `yaml:"steps"`
}

type ScriptStep struct {
	Chapter  *int               `yaml:"chapter,omitempty"`
	Duration float64            `yaml:"duration,omitempty"`
	To       map[string]float64 `yaml:"to,omitempty"`
}

func chapterStep(i int) ScriptStep { return ScriptStep{Chapter: &i} }

// DefaultScript is the four-chapter journey: prelude, tunnel, vortex,
// landscapes.
func DefaultScript() Script {
	return Script{Steps: []ScriptStep{
		chapterStep(0),
		{Duration: 1.2, To: map[string]float64{"tunnelSpeed": 1.4, "tunnelRadius": 3.0, "cameraZ": 2.2}},
		chapterStep(1),
		{Duration: 1.2, To: map[string]float64{"vortexSpin": 0.8, "cameraZ": -3.5}},
		chapterStep(2),
		{Duration: 1.6, To: map[string]float64{"tunnelSpeed": 0.8, "reveal": 1, "cameraZ": -6.5}},
		chapterStep(3),
	}}
}

// ParseScript decodes a YAML timeline script.
func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse timeline: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// LoadScript reads a YAML timeline script from disk.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read timeline: %w", err)
	}
	return ParseScript(data)
}

func (s Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("timeline: no steps")
	}
	seen := map[int]bool{}
	for i, st := range s.Steps {
		if st.Chapter != nil {
			if st.Duration != 0 || len(st.To) != 0 {
				return fmt.Errorf("timeline step %d: chapter steps take no duration or targets", i)
			}
			if *st.Chapter < 0 {
				return fmt.Errorf("timeline step %d: negative chapter %d", i, *st.Chapter)
			}
			if seen[*st.Chapter] {
				return fmt.Errorf("timeline step %d: chapter %d repeated", i, *st.Chapter)
			}
			seen[*st.Chapter] = true
			continue
		}
		if st.Duration <= 0 {
			return fmt.Errorf("timeline step %d: duration must be positive", i)
		}
		if len(st.To) == 0 {
			return fmt.Errorf("timeline step %d: no targets", i)
		}
		for name := range st.To {
			if _, ok := paramNames[name]; !ok {
				return fmt.Errorf("timeline step %d: unknown parameter %q", i, name)
			}
		}
	}
	return nil
}

// sortedTargets returns a step's targets in a stable order.
func (st ScriptStep) sortedTargets() []string {
	names := make([]string, 0, len(st.To))
	for name := range st.To {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
