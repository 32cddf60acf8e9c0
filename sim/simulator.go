// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/beergame/supplytwin/chain"
	"github.com/beergame/supplytwin/sim/trace"
)

const (
	DefaultSteps        = 20
	DefaultScenarioName = "Default Scenario"
	DefaultHoldingCost  = 0.5
	DefaultLeadTime     = 1

	// maxHistoryPrealloc caps the up-front history allocation; longer runs
	// grow the slice as periods close.
	maxHistoryPrealloc = 1024
)

// OrderingPolicy decides a node's replenishment quantity.
// Implementations must be referentially transparent: the same inputs always
// yield the same output, and no external state is read or written.
type OrderingPolicy interface {
	Name() string
	OrderQuantity(node string, inventory, demand int) (int, error)
}

// Config is the immutable model configuration shared by all runs of an Engine.
type Config struct {
	Topology    *chain.Topology
	ProductID   string
	HoldingCost float64 // per unit of end-of-step inventory per time unit
	LeadTime    int64   // delivery and production lead time, in time units
	Demand      DemandSampler
}

// DefaultConfig returns the reference Beer Game model.
func DefaultConfig() Config {
	return Config{
		Topology:    chain.BeerGame(),
		ProductID:   chain.DefaultProductID,
		HoldingCost: DefaultHoldingCost,
		LeadTime:    DefaultLeadTime,
		Demand:      DefaultDemand(),
	}
}

// Request describes one what-if run.
type Request struct {
	InitialState chain.ChainStatus
	Policy       OrderingPolicy
	Steps        int    // 0 means DefaultSteps
	ScenarioName string // empty means DefaultScenarioName
	Seed         int64
	TraceLevel   trace.TraceLevel
}

// NodeResult is one node's state at the end of a time unit.
type NodeResult struct {
	Inventory int     `json:"inventory"`
	Cost      float64 `json:"cost"`
}

// StepResult is the history entry of one time unit.
type StepResult struct {
	Step  int                   `json:"step"`
	Nodes map[string]NodeResult `json:"nodes"`
}

// NodeSummary is a node's final tally.
type NodeSummary struct {
	Inventory int     `json:"inventory"`
	Cost      float64 `json:"cost"`
	Stockouts int     `json:"stockouts"`
}

// Results is the value returned by a run.
type Results struct {
	ScenarioName   string                 `json:"scenario_name"`
	PolicyName     string                 `json:"policy_name"`
	Seed           int64                  `json:"seed"`
	TotalCost      float64                `json:"total_cost"`
	StockoutEvents int                    `json:"stockout_events"`
	History        []StepResult           `json:"history"`
	Final          map[string]NodeSummary `json:"final"`
	// Unit accounting: initial + produced - sold == final inventory + in flight.
	InitialUnits  int                    `json:"initial_units"`
	UnitsProduced int                    `json:"units_produced"`
	UnitsSold     int                    `json:"units_sold"`
	UnitsInFlight int                    `json:"units_in_flight"`
	Trace         *trace.SimulationTrace `json:"trace,omitempty"`
}

// Engine runs simulations against a fixed Config. It keeps no per-run state,
// so Run may be called concurrently.
type Engine struct {
	cfg   Config
	order []string
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Topology == nil {
		return nil, errors.New("sim: config has no topology")
	}
	if cfg.ProductID == "" {
		return nil, errors.New("sim: config has no product")
	}
	if cfg.HoldingCost < 0 {
		return nil, fmt.Errorf("sim: holding cost must be non-negative, got %v", cfg.HoldingCost)
	}
	if cfg.LeadTime < 1 {
		return nil, fmt.Errorf("sim: lead time must be >= 1, got %d", cfg.LeadTime)
	}
	if cfg.Demand == nil {
		return nil, errors.New("sim: config has no demand sampler")
	}
	if err := validateDemand(cfg.Demand); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	return &Engine{cfg: cfg, order: cfg.Topology.ProcessingOrder()}, nil
}

// Config returns the engine's model configuration.
func (e *Engine) Config() Config { return e.cfg }

// nodeState is a run-private copy of one node.
type nodeState struct {
	name       string
	upstream   string
	downstream string
	rank       int

	inventory int
	// pendingOrders is the quantity ordered by downstream since the last activation.
	pendingOrders int
	cost          float64
	stockouts     int
}

// simulation is the state of one run. It is created by Run and discarded
// when Run returns.
type simulation struct {
	cfg     Config
	req     Request
	horizon int64

	clock    int64
	calendar *EventHeap
	lastID   uint64
	nodes    map[string]*nodeState
	order    []string
	demand   *rand.Rand

	results *Results
	trace   *trace.SimulationTrace
}

// Run executes req and returns its results. The initial snapshot is copied,
// never mutated.
func (e *Engine) Run(req Request) (*Results, error) {
	if req.Policy == nil {
		return nil, errors.New("sim: request has no ordering policy")
	}
	if req.Steps < 0 {
		return nil, fmt.Errorf("sim: steps must be non-negative, got %d", req.Steps)
	}
	if !trace.IsValidTraceLevel(string(req.TraceLevel)) {
		return nil, fmt.Errorf("sim: unknown trace level %q", req.TraceLevel)
	}
	if req.Steps == 0 {
		req.Steps = DefaultSteps
	}
	if req.ScenarioName == "" {
		req.ScenarioName = DefaultScenarioName
	}

	s := &simulation{
		cfg:      e.cfg,
		req:      req,
		horizon:  int64(req.Steps),
		calendar: NewEventHeap(),
		nodes:    make(map[string]*nodeState, len(e.order)),
		order:    e.order,
		demand:   NewPartitionedRNG(NewSimulationKey(req.Seed)).ForSubsystem(SubsystemDemand),
		results: &Results{
			ScenarioName: req.ScenarioName,
			PolicyName:   req.Policy.Name(),
			Seed:         req.Seed,
			History:      make([]StepResult, 0, min(req.Steps, maxHistoryPrealloc)),
		},
	}
	if req.TraceLevel == trace.TraceLevelDecisions {
		s.trace = trace.NewSimulationTrace(req.TraceLevel)
	}
	if err := s.load(req.InitialState); err != nil {
		return nil, err
	}

	logrus.Infof("simulation %q: policy=%s steps=%d seed=%d", req.ScenarioName, req.Policy.Name(), req.Steps, req.Seed)
	if err := s.run(); err != nil {
		logrus.Warnf("simulation %q aborted: %v", req.ScenarioName, err)
		return nil, err
	}
	s.finish()
	logrus.Infof("simulation %q: total cost %.2f, %d stockout events", req.ScenarioName, s.results.TotalCost, s.results.StockoutEvents)
	return s.results, nil
}

// load copies the snapshot into run-private node state and seeds the calendar.
func (s *simulation) load(initial chain.ChainStatus) error {
	byName := make(map[string]chain.NodeStatus, len(initial.Nodes))
	for name, ns := range initial.Nodes {
		byName[chain.NormalizeName(name)] = ns
	}
	product := s.cfg.ProductID
	topo := s.cfg.Topology

	for rank, name := range s.order {
		ns, ok := byName[name]
		if !ok {
			return fmt.Errorf("sim: initial state lacks node %q: %w", name, chain.ErrNotFound)
		}
		up, _ := topo.UpstreamOf(name)
		down, _ := topo.DownstreamOf(name)
		n := &nodeState{
			name:       name,
			upstream:   up,
			downstream: down,
			rank:       rank,
			inventory:  ns.Inventory[product],
		}
		if n.inventory < 0 {
			return fmt.Errorf("sim: node %q starts with negative inventory %d", name, n.inventory)
		}
		if down != "" {
			n.pendingOrders = ns.PendingIncoming(product)
		}
		s.nodes[name] = n
		s.results.InitialUnits += n.inventory
		s.schedule(&NodeStepEvent{baseEvent: baseEvent{time: 0}, Node: name, rank: rank})
	}
	for name := range byName {
		if _, ok := s.nodes[name]; !ok {
			logrus.Warnf("sim: ignoring node %q absent from the topology", name)
		}
	}

	for _, sh := range initial.ShipmentsInTransit {
		if sh.ProductID != product || sh.Quantity <= 0 {
			continue
		}
		dest := chain.NormalizeName(sh.DestinationNode)
		if _, ok := s.nodes[dest]; !ok {
			return fmt.Errorf("sim: shipment %s destination %q: %w", sh.ShipmentID, sh.DestinationNode, chain.ErrNotFound)
		}
		// A twin shipment with eta 1 lands on the next step, i.e. time unit 0.
		at := int64(sh.ETA - 1)
		if at < 0 {
			at = 0
		}
		s.scheduleDelivery(dest, sh.Quantity, at)
		s.results.InitialUnits += sh.Quantity
	}

	s.schedule(&PeriodEndEvent{baseEvent: baseEvent{time: 0}})
	return nil
}

// schedule stamps ev with the next event ID and pushes it onto the calendar.
func (s *simulation) schedule(ev Event) {
	s.lastID++
	ev.setEventID(s.lastID)
	s.calendar.Schedule(ev)
}

func (s *simulation) scheduleDelivery(target string, quantity int, at int64) {
	if quantity <= 0 {
		return
	}
	s.schedule(&DeliveryEvent{baseEvent: baseEvent{time: at}, Target: target, Quantity: quantity})
}

func (s *simulation) run() error {
	for s.calendar.Len() > 0 {
		if s.calendar.Peek().Timestamp() >= s.horizon {
			break
		}
		ev := s.calendar.PopNext()
		s.clock = ev.Timestamp()
		logrus.Tracef("[t %04d] executing %T", s.clock, ev)
		if err := ev.Execute(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulation) deliver(e *DeliveryEvent) {
	n := s.nodes[e.Target]
	n.inventory += e.Quantity
	logrus.Debugf("[t %04d] %s received %d", e.time, n.name, e.Quantity)
}

// stepNode is one activation of a node process.
func (s *simulation) stepNode(name string, now int64) error {
	n := s.nodes[name]

	// Demand: bottom nodes face exogenous customers, others their order buffer.
	var demand int
	if n.downstream == "" {
		demand = s.cfg.Demand.Sample(s.demand)
		if demand < 0 {
			return fmt.Errorf("sim: demand sampler returned %d at step %d", demand, now)
		}
	} else {
		demand = n.pendingOrders
		n.pendingOrders = 0
	}

	// Fulfillment: lost sales on shortfall.
	shipped := demand
	stockout := false
	if n.inventory >= demand {
		n.inventory -= demand
	} else {
		stockout = true
		shipped = n.inventory
		n.inventory = 0
		n.stockouts++
		s.results.StockoutEvents++
		logrus.Debugf("[t %04d] %s stockout: demand %d, shipped %d", now, n.name, demand, shipped)
	}
	if n.downstream != "" {
		s.scheduleDelivery(n.downstream, shipped, now+s.cfg.LeadTime)
	} else {
		s.results.UnitsSold += shipped
	}

	n.cost += float64(n.inventory) * s.cfg.HoldingCost

	qty, err := s.req.Policy.OrderQuantity(n.name, n.inventory, demand)
	if err != nil {
		return &PolicyError{Policy: s.req.Policy.Name(), Node: n.name, Step: now, Quantity: qty, Err: err}
	}
	if qty < 0 {
		return &PolicyError{Policy: s.req.Policy.Name(), Node: n.name, Step: now, Quantity: qty, Err: ErrNegativeOrder}
	}
	if n.upstream != "" {
		s.nodes[n.upstream].pendingOrders += qty
	} else {
		// Top of the chain: production lead time instead of procurement.
		s.scheduleDelivery(n.name, qty, now+s.cfg.LeadTime)
		s.results.UnitsProduced += qty
	}

	if s.trace != nil {
		s.trace.RecordDecision(trace.DecisionRecord{
			Step:          now,
			Node:          n.name,
			Demand:        demand,
			Shipped:       shipped,
			Inventory:     n.inventory,
			OrderQuantity: qty,
			Stockout:      stockout,
		})
	}
	return nil
}

func (s *simulation) closePeriod(now int64) {
	entry := StepResult{Step: int(now), Nodes: make(map[string]NodeResult, len(s.nodes))}
	for name, n := range s.nodes {
		entry.Nodes[name] = NodeResult{Inventory: n.inventory, Cost: n.cost}
	}
	s.results.History = append(s.results.History, entry)
}

func (s *simulation) finish() {
	r := s.results
	r.Final = make(map[string]NodeSummary, len(s.nodes))
	for _, name := range s.order {
		n := s.nodes[name]
		r.TotalCost += n.cost
		r.Final[name] = NodeSummary{Inventory: n.inventory, Cost: n.cost, Stockouts: n.stockouts}
	}
	r.UnitsInFlight = s.calendar.pendingDeliveries()
	r.Trace = s.trace
}
