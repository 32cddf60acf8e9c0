// Package sim provides the discrete-event policy simulator for the Beer Game chain.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: Event types that drive a run (Delivery, NodeStep, PeriodEnd)
//   - event_heap.go: the calendar, ordered timestamp → priority → event ID
//   - simulator.go: Engine, Request/Results and the per-node process logic
//
// # Model
//
// A run copies a chain.ChainStatus snapshot into private node states and
// advances a logical clock from 0 to Steps-1. At every time unit deliveries
// land first, then each node process runs once in downstream-first order
// (retailer, wholesaler, distributor, brewery): determine demand, fulfill,
// accrue holding cost, ask the OrderingPolicy for a replenishment quantity.
// Orders are consumed by the upstream process later in the same time unit;
// the top node's order becomes a self-delivery after the lead time.
//
// Unmet demand is lost and counted as a stockout. This differs on purpose
// from the live twin (package twin), which backlogs unfulfillable orders.
//
// Runs are single-threaded lockstep and share nothing; Engine.Compare runs
// independent requests in parallel goroutines.
//
// # Key Interfaces
//
//   - OrderingPolicy: replenishment quantity from (node, inventory, demand);
//     implementations live in sim/policy
//   - DemandSampler: exogenous customer demand drawn from a seeded stream
//
// Decision traces are recorded through sim/trace.
package sim
