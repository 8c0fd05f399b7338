package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/55utah/fc-simulator/nes"
)

var buttonNames = map[string]int{
	"a":      nes.ButtonA,
	"b":      nes.ButtonB,
	"select": nes.ButtonSelect,
	"start":  nes.ButtonStart,
	"up":     nes.ButtonUp,
	"down":   nes.ButtonDown,
	"left":   nes.ButtonLeft,
	"right":  nes.ButtonRight,
}

type hold struct {
	button   int
	from, to int // frames, inclusive
}

// HoldScript presses buttons for ranges of frames, written as
// "start@60-70,a@100-130,right@200". A single frame needs no range.
type HoldScript struct {
	holds []hold
}

func ParseHoldScript(script string) (*HoldScript, error) {
	hs := &HoldScript{}
	for _, item := range strings.Split(script, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, frames, ok := strings.Cut(item, "@")
		if !ok {
			return nil, fmt.Errorf("hold %q: want button@frames", item)
		}
		button, ok := buttonNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("hold %q: unknown button %q", item, name)
		}
		h := hold{button: button}
		first, last, isRange := strings.Cut(frames, "-")
		var err error
		if h.from, err = strconv.Atoi(first); err != nil {
			return nil, fmt.Errorf("hold %q: %w", item, err)
		}
		h.to = h.from
		if isRange {
			if h.to, err = strconv.Atoi(last); err != nil {
				return nil, fmt.Errorf("hold %q: %w", item, err)
			}
		}
		if h.to < h.from {
			return nil, fmt.Errorf("hold %q: range ends before it starts", item)
		}
		hs.holds = append(hs.holds, h)
	}
	return hs, nil
}

// Buttons is the controller mask for the given frame.
func (hs *HoldScript) Buttons(frame int) byte {
	if hs == nil {
		return 0
	}
	var pressed [8]bool
	for _, h := range hs.holds {
		if frame >= h.from && frame <= h.to {
			pressed[h.button] = true
		}
	}
	return nes.Buttons(pressed)
}
