package core

import "sync"

// EventContext carries the payload of a fired event.
type EventContext struct {
	// Name of the resource the event refers to.
	Name string
	// Path is the absolute file path involved, if any.
	Path string
	// Resource is the instance involved, if any.
	Resource interface{}
}

// Resource event codes. Applications should use codes beyond 255.
type SystemEventCode int

const (
	// A resource finished loading from file.
	/* Context usage:
	 * Name, Path, Resource
	 */
	EVENT_CODE_RESOURCE_LOADED SystemEventCode = 0x01

	// A resource failed to load.
	/* Context usage:
	 * Name, Path
	 */
	EVENT_CODE_RESOURCE_LOAD_FAILED SystemEventCode = 0x02

	// A resource was placed in a cache.
	/* Context usage:
	 * Name, Resource
	 */
	EVENT_CODE_RESOURCE_ADDED SystemEventCode = 0x03

	// A resource was evicted from a cache.
	/* Context usage:
	 * Name, Resource
	 */
	EVENT_CODE_RESOURCE_REMOVED SystemEventCode = 0x04

	// The file backing a cached resource changed on disk. The cache is not touched.
	/* Context usage:
	 * Name, Path
	 */
	EVENT_CODE_RESOURCE_FILE_CHANGED SystemEventCode = 0x05

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// Events dispatches resource events to registered listeners. The zero value is ready to use.
type Events struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEvents() *Events {
	return &Events{registered: make(map[SystemEventCode][]*registeredEvent)}
}

/**
 * Register to listen for when events are sent with the provided code. A listener can only be
 * registered once per code; a duplicate registration returns false.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (e *Events) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registered == nil {
		e.registered = make(map[SystemEventCode][]*registeredEvent)
	}
	for _, r := range e.registered[code] {
		if r.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	e.registered[code] = append(e.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @returns true if the registration was found and removed; otherwise false.
 */
func (e *Events) Unregister(code SystemEventCode, listener interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := e.registered[code]
	for i, r := range events {
		if r.listener == listener {
			e.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (e *Events) Fire(code SystemEventCode, sender interface{}, data EventContext) bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	events := append([]*registeredEvent(nil), e.registered[code]...)
	e.mu.RUnlock()

	for _, r := range events {
		if r.callback(code, sender, r.listener, data) {
			return true
		}
	}
	return false
}
