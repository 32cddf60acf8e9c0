package sim

import "container/heap"

// EventHeap is a run's event calendar. Events pop by timestamp, then
// priority (deliveries, node steps by rank, period end), then event ID, so
// a run replays identically for a given seed.
type EventHeap struct {
	events []Event
}

// NewEventHeap returns an empty calendar.
func NewEventHeap() *EventHeap {
	h := &EventHeap{
		events: make([]Event, 0),
	}
	heap.Init(h)
	return h
}

// Len is the number of scheduled events.
func (h *EventHeap) Len() int {
	return len(h.events)
}

func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]

	if ei.Timestamp() != ej.Timestamp() {
		return ei.Timestamp() < ej.Timestamp()
	}
	if ei.Priority() != ej.Priority() {
		return ei.Priority() < ej.Priority()
	}
	return ei.EventID() < ej.EventID()
}

func (h *EventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

func (h *EventHeap) Push(x interface{}) {
	h.events = append(h.events, x.(Event))
}

func (h *EventHeap) Pop() interface{} {
	old := h.events
	n := len(old)
	item := old[n-1]
	h.events = old[0 : n-1]
	return item
}

// Schedule puts e on the calendar. Its event ID must already be set.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, e)
}

// PopNext removes the earliest event; nil when the calendar is empty.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(Event)
}

// Peek returns the earliest event without removing it.
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.events[0]
}

// pendingDeliveries sums the quantity of deliveries still on the calendar.
func (h *EventHeap) pendingDeliveries() int {
	total := 0
	for _, e := range h.events {
		if d, ok := e.(*DeliveryEvent); ok {
			total += d.Quantity
		}
	}
	return total
}
