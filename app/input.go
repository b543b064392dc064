package app

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyEvent represents a key press or release
type KeyEvent struct {
	Key     ebiten.Key
	Pressed bool // true for press, false for release
	Shift   bool
}

// InputManager polls the keyboard once per tick and fans the changes out
// to subscribers.
type InputManager struct {
	subscribers   []chan KeyEvent
	subscribersMu sync.RWMutex
}

func NewInputManager() *InputManager {
	return &InputManager{subscribers: make([]chan KeyEvent, 0)}
}

// Subscribe returns a channel that will receive key events.
// The caller is responsible for reading from this channel to prevent blocking
func (im *InputManager) Subscribe() <-chan KeyEvent {
	im.subscribersMu.Lock()
	defer im.subscribersMu.Unlock()

	ch := make(chan KeyEvent, 50)
	im.subscribers = append(im.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel
func (im *InputManager) Unsubscribe(ch <-chan KeyEvent) {
	im.subscribersMu.Lock()
	defer im.subscribersMu.Unlock()

	for i, sub := range im.subscribers {
		if sub == ch {
			close(sub)
			im.subscribers = append(im.subscribers[:i], im.subscribers[i+1:]...)
			break
		}
	}
}

// Update should be called every tick to check for input changes
func (im *InputManager) Update() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		im.broadcastEvent(KeyEvent{Key: key, Pressed: true, Shift: shift})
	}
	for _, key := range inpututil.AppendJustReleasedKeys(nil) {
		im.broadcastEvent(KeyEvent{Key: key, Pressed: false, Shift: shift})
	}
}

// broadcastEvent sends the event to all subscribers
func (im *InputManager) broadcastEvent(event KeyEvent) {
	im.subscribersMu.RLock()
	defer im.subscribersMu.RUnlock()

	for _, subscriber := range im.subscribers {
		select {
		case subscriber <- event:
		default:
			// Channel is full, skip this subscriber to prevent blocking
		}
	}
}
