// Package input turns SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies viewer events.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event is one translated SDL event.
type Event struct {
	Type EventType
	// KeyName is the SDL key name ("Space", "R", "F12"), the form key
	// bindings are written in.
	KeyName string
	Repeat  bool
	Width   int
	Height  int
	MouseX  int
	MouseY  int
	DeltaX  int
	DeltaY  int
	Wheel   float32
	Button  uint8
}

// Input collects the events of one frame and tracks left-button drags.
type Input struct {
	events   []Event
	dragging bool
	keyName  func(sdl.Keycode) string
}

// New creates an input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		keyName: sdl.GetKeyName,
	}
}

// Update drains the SDL queue. It returns true once a quit was requested.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if i.push(ev) {
			return true
		}
	}
	return false
}

// push translates ev and appends it. It reports a quit request.
func (i *Input) push(ev sdl.Event) bool {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)})
		}

	case *sdl.KeyboardEvent:
		out := Event{Type: EventKeyUp, KeyName: i.keyName(e.Keysym.Sym), Repeat: e.Repeat != 0}
		if e.Type == sdl.KEYDOWN {
			out.Type = EventKeyDown
		}
		i.events = append(i.events, out)

	case *sdl.MouseMotionEvent:
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		})

	case *sdl.MouseButtonEvent:
		down := e.Type == sdl.MOUSEBUTTONDOWN
		out := Event{Type: EventMouseUp, MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}
		if down {
			out.Type = EventMouseDown
		}
		if e.Button == sdl.BUTTON_LEFT {
			i.dragging = down
		}
		i.events = append(i.events, out)

	case *sdl.MouseWheelEvent:
		y := float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: y})
	}
	return false
}

// Events returns the events of the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Dragging reports whether the left mouse button is held.
func (i *Input) Dragging() bool {
	return i.dragging
}
