package input

// Dispatcher keeps an ordered listener registry and implements Source.
// The zero value is ready to use. It is meant to be embedded by windows and
// other event producers, which call Dispatch from their input callbacks.
type Dispatcher struct {
	nextID    ListenerID
	listeners []registration
}

type registration struct {
	id       ListenerID
	t        EventType
	listener Listener
}

var _ Source = (*Dispatcher)(nil)

// AddListener registers l for events of type t and returns its id
func (d *Dispatcher) AddListener(t EventType, l Listener) ListenerID {
	d.nextID++
	d.listeners = append(d.listeners, registration{id: d.nextID, t: t, listener: l})
	return d.nextID
}

// RemoveListener detaches the listener with the given id.
// Removing an id twice, or one that was never issued, does nothing.
func (d *Dispatcher) RemoveListener(id ListenerID) {
	for i, r := range d.listeners {
		if r.id == id {
			// Copy instead of shifting in place so a Dispatch that is
			// iterating the old slice keeps seeing a consistent view.
			next := make([]registration, 0, len(d.listeners)-1)
			next = append(next, d.listeners[:i]...)
			next = append(next, d.listeners[i+1:]...)
			d.listeners = next
			return
		}
	}
}

// Dispatch delivers ev to every listener registered for its type, in
// registration order. Listeners removed while the dispatch is running are
// not called if they have not been reached yet.
func (d *Dispatcher) Dispatch(ev Event) {
	snapshot := d.listeners
	for _, r := range snapshot {
		if r.t != ev.Type || !d.registered(r.id) {
			continue
		}
		r.listener(ev)
	}
}

// Len returns the number of registered listeners
func (d *Dispatcher) Len() int {
	return len(d.listeners)
}

func (d *Dispatcher) registered(id ListenerID) bool {
	for _, r := range d.listeners {
		if r.id == id {
			return true
		}
	}
	return false
}
