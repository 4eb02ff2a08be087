package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	ActionPress   = "press"
	ActionRelease = "release"
)

// InputEvent is one scripted key transition applied at the start of Frame.
type InputEvent struct {
	Frame  uint64 `yaml:"frame"`
	Key    string `yaml:"key"`
	Action string `yaml:"action"`
}

// InputReplay is a frame-indexed key timeline used for headless runs.
type InputReplay struct {
	events []InputEvent
}

// LoadInputReplay loads input_replay.yaml. Events are kept sorted by frame,
// preserving file order within a frame.
func LoadInputReplay(path string) (*InputReplay, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input replay: %w", err)
	}
	var events []InputEvent
	if err := yaml.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("parse input replay: %w", err)
	}
	for i, e := range events {
		if e.Key == "" {
			return nil, fmt.Errorf("input replay: event %d has no key", i)
		}
		if e.Action != ActionPress && e.Action != ActionRelease {
			return nil, fmt.Errorf("input replay: event %d has unknown action %q", i, e.Action)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Frame < events[j].Frame })
	return &InputReplay{events: events}, nil
}

// NewInputReplay builds a replay from in-memory events.
func NewInputReplay(events []InputEvent) *InputReplay {
	sorted := append([]InputEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })
	return &InputReplay{events: sorted}
}

// At returns the events scheduled for frame.
func (r *InputReplay) At(frame uint64) []InputEvent {
	lo := sort.Search(len(r.events), func(i int) bool { return r.events[i].Frame >= frame })
	hi := lo
	for hi < len(r.events) && r.events[hi].Frame == frame {
		hi++
	}
	return r.events[lo:hi]
}

// Count returns the total number of events loaded.
func (r *InputReplay) Count() int { return len(r.events) }
