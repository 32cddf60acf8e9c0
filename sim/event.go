package sim

// Event is one entry in a run's discrete-event calendar.
// Each event has a Timestamp (in time units), a Priority that orders events
// sharing a timestamp, and an EventID assigned by the calendar for
// deterministic tie-breaking.
type Event interface {
	Timestamp() int64
	Priority() int
	EventID() uint64
	Execute(*simulation) error
	setEventID(id uint64)
}

// Same-timestamp ordering: deliveries land first, then node processes run
// downstream-first, then the period is closed.
const (
	priorityDelivery  = 0
	priorityNodeStep  = 1 // + node rank
	priorityPeriodEnd = 1 << 30
)

// baseEvent provides common event fields.
type baseEvent struct {
	time    int64
	eventID uint64
}

func (e *baseEvent) Timestamp() int64 { return e.time }
func (e *baseEvent) EventID() uint64  { return e.eventID }

func (e *baseEvent) setEventID(id uint64) { e.eventID = id }

// DeliveryEvent adds Quantity units to a node's inventory when it fires.
type DeliveryEvent struct {
	baseEvent
	Target   string
	Quantity int
}

func (e *DeliveryEvent) Priority() int { return priorityDelivery }

// Execute credits the target node.
func (e *DeliveryEvent) Execute(s *simulation) error {
	s.deliver(e)
	return nil
}

// NodeStepEvent runs one node process for one time unit and reschedules it.
type NodeStepEvent struct {
	baseEvent
	Node string
	rank int
}

func (e *NodeStepEvent) Priority() int { return priorityNodeStep + e.rank }

// Execute runs the node process and schedules its next activation.
func (e *NodeStepEvent) Execute(s *simulation) error {
	if err := s.stepNode(e.Node, e.time); err != nil {
		return err
	}
	s.schedule(&NodeStepEvent{baseEvent: baseEvent{time: e.time + 1}, Node: e.Node, rank: e.rank})
	return nil
}

// PeriodEndEvent records the per-step history entry after every node ran.
type PeriodEndEvent struct {
	baseEvent
}

func (e *PeriodEndEvent) Priority() int { return priorityPeriodEnd }

// Execute appends history and schedules the next period boundary.
func (e *PeriodEndEvent) Execute(s *simulation) error {
	s.closePeriod(e.time)
	s.schedule(&PeriodEndEvent{baseEvent: baseEvent{time: e.time + 1}})
	return nil
}
