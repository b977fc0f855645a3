package station

// Window is a bounded history of the most recent valid readings for one
// channel. Pushing past capacity evicts the oldest entry, so the buffer
// always holds at most the last `capacity` values in arrival order.
type Window struct {
	capacity int
	values   []float64
}

// NewWindow creates an empty window. Capacity must be positive; anything
// else is clamped to 1 (no smoothing).
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		values:   make([]float64, 0, capacity),
	}
}

// Push appends a valid reading, evicting the oldest one when the window is
// full. Callers must filter out NaN before pushing; the window stores
// whatever it is given.
func (w *Window) Push(v float64) {
	w.values = append(w.values, v)
	if len(w.values) > w.capacity {
		w.values = w.values[1:]
	}
}

// Len returns the number of readings currently held.
func (w *Window) Len() int {
	return len(w.values)
}

// Average returns the arithmetic mean of the readings currently in the
// window. The second result is false while the window is empty.
func (w *Window) Average() (float64, bool) {
	if len(w.values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values)), true
}

// Last returns the most recently pushed reading, or false when the window
// is empty.
func (w *Window) Last() (float64, bool) {
	if len(w.values) == 0 {
		return 0, false
	}
	return w.values[len(w.values)-1], true
}
