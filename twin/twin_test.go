package twin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beergame/supplytwin/chain"
)

const beer = chain.DefaultProductID

func TestDigitalTwin_InitialState(t *testing.T) {
	dt := NewBeerGame()
	st := dt.GetFullState()

	assert.Equal(t, 0, st.CurrentStep)
	assert.Empty(t, st.ShipmentsInTransit)
	want := map[string]int{"retailer": 100, "wholesaler": 200, "distributor": 300, "brewery": 500}
	for name, qty := range want {
		require.Contains(t, st.Nodes, name)
		assert.Equal(t, qty, st.Nodes[name].Inventory[beer], name)
	}
	assert.Equal(t, "wholesaler", st.Nodes["retailer"].Upstream)
	assert.Equal(t, "distributor", st.Nodes["brewery"].Downstream)
}

func TestDigitalTwin_ReferenceScenario(t *testing.T) {
	dt := NewBeerGame()
	order := chain.NewOrder(beer, 20, "wholesaler", "retailer")

	st, err := dt.PlaceOrder(order)
	require.NoError(t, err)
	assert.Equal(t, "retailer", st.Name)

	retailer, ok := dt.GetNodeState("retailer")
	require.True(t, ok)
	wholesaler, ok := dt.GetNodeState("wholesaler")
	require.True(t, ok)
	require.Len(t, retailer.OutgoingOrders, 1)
	require.Len(t, wholesaler.IncomingOrders, 1)
	assert.Equal(t, order.OrderID, retailer.OutgoingOrders[0].OrderID)
	assert.Equal(t, order.OrderID, wholesaler.IncomingOrders[0].OrderID)

	// Step 1: order is fulfilled, shipment created
	dt.Step()
	s1 := dt.GetFullState()
	assert.Equal(t, 1, s1.CurrentStep)
	require.Len(t, s1.ShipmentsInTransit, 1)
	assert.Equal(t, order.OrderID, s1.ShipmentsInTransit[0].OrderID)
	assert.Equal(t, 2, s1.ShipmentsInTransit[0].ETA)
	assert.Equal(t, 180, s1.Nodes["wholesaler"].Inventory[beer])
	assert.Equal(t, 100, s1.Nodes["retailer"].Inventory[beer])
	assert.Equal(t, chain.OrderFulfilled, s1.Nodes["wholesaler"].IncomingOrders[0].Status)
	assert.Equal(t, chain.OrderFulfilled, s1.Nodes["retailer"].OutgoingOrders[0].Status)

	// Step 2: shipment counts down
	dt.Step()
	s2 := dt.GetFullState()
	require.Len(t, s2.ShipmentsInTransit, 1)
	assert.Equal(t, 1, s2.ShipmentsInTransit[0].ETA)

	// Step 3: shipment arrives and leaves the transit set in the same step
	dt.Step()
	s3 := dt.GetFullState()
	assert.Empty(t, s3.ShipmentsInTransit)
	assert.Equal(t, 120, s3.Nodes["retailer"].Inventory[beer])
	assert.Equal(t, 3, dt.CurrentStep())
}

func TestDigitalTwin_GetNodeState_CaseInsensitiveAndNotFound(t *testing.T) {
	dt := NewBeerGame()

	st, ok := dt.GetNodeState("  WholeSaler ")
	require.True(t, ok)
	assert.Equal(t, "wholesaler", st.Name)

	_, ok = dt.GetNodeState("pub")
	assert.False(t, ok)
}

func TestDigitalTwin_PlaceOrder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		order chain.Order
		want  error
	}{
		{"unknown destination", chain.NewOrder(beer, 5, "", "pub"), chain.ErrNotFound},
		{"no upstream", chain.NewOrder(beer, 5, "", "brewery"), chain.ErrNoUpstream},
		{"zero quantity", chain.NewOrder(beer, 0, "", "retailer"), chain.ErrInvalidQuantity},
		{"negative quantity", chain.NewOrder(beer, -3, "", "retailer"), chain.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewBeerGame()
			before := dt.GetFullState()

			_, err := dt.PlaceOrder(tt.order)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, dt.GetFullState(), "chain state unchanged")
		})
	}
}

func TestDigitalTwin_PlaceOrder_RejectsFulfilledOrder(t *testing.T) {
	dt := NewBeerGame()
	o := chain.NewOrder(beer, 5, "", "retailer")
	o.Status = chain.OrderFulfilled

	_, err := dt.PlaceOrder(o)
	assert.Error(t, err)
}

func TestDigitalTwin_PlaceOrder_RejectsRepeatedOrderID(t *testing.T) {
	// GIVEN an order already placed with the twin
	dt := NewBeerGame()
	order := chain.NewOrder(beer, 20, "", "retailer")
	_, err := dt.PlaceOrder(order)
	require.NoError(t, err)
	before := dt.GetFullState()

	// WHEN the same order is placed again
	_, err = dt.PlaceOrder(order)

	// THEN it is rejected and nothing changes
	assert.ErrorIs(t, err, chain.ErrDuplicateOrder)
	assert.Equal(t, before, dt.GetFullState())

	// AND stepping ships the order exactly once
	dt.Step()
	st := dt.GetFullState()
	shipped := 0
	for _, s := range st.ShipmentsInTransit {
		if s.OrderID == order.OrderID {
			shipped++
		}
	}
	assert.Equal(t, 1, shipped)
	assert.Len(t, st.Nodes["wholesaler"].IncomingOrders, 1)
	assert.Equal(t, 180, st.Nodes["wholesaler"].Inventory[beer])
}

func TestDigitalTwin_PlaceOrder_FailedPlacementDoesNotReserveID(t *testing.T) {
	dt := NewBeerGame()
	order := chain.NewOrder(beer, 5, "", "brewery")
	_, err := dt.PlaceOrder(order)
	require.ErrorIs(t, err, chain.ErrNoUpstream)

	order.DestinationNode = "retailer"
	_, err = dt.PlaceOrder(order)
	assert.NoError(t, err)
}

func TestDigitalTwin_PlaceOrder_AssignsIDWhenMissing(t *testing.T) {
	dt := NewBeerGame()
	st, err := dt.PlaceOrder(chain.Order{ProductID: beer, Quantity: 5, DestinationNode: "Retailer"})
	require.NoError(t, err)

	require.Len(t, st.OutgoingOrders, 1)
	placed := st.OutgoingOrders[0]
	assert.NotEmpty(t, placed.OrderID)
	assert.Equal(t, "wholesaler", placed.SourceNode)
	assert.Equal(t, "retailer", placed.DestinationNode)
	assert.Equal(t, chain.OrderPending, placed.Status)
}

func TestDigitalTwin_SnapshotIsAValue(t *testing.T) {
	dt := NewBeerGame()
	_, err := dt.PlaceOrder(chain.NewOrder(beer, 20, "", "retailer"))
	require.NoError(t, err)
	dt.Step()

	snap := dt.GetFullState()
	snap.CurrentStep = 99
	snap.Nodes["wholesaler"].Inventory[beer] = 0
	snap.Nodes["wholesaler"].IncomingOrders[0].Status = chain.OrderPending
	snap.ShipmentsInTransit[0].ETA = 0
	delete(snap.Nodes, "retailer")

	fresh := dt.GetFullState()
	assert.Equal(t, 1, fresh.CurrentStep)
	assert.Equal(t, 180, fresh.Nodes["wholesaler"].Inventory[beer])
	assert.Equal(t, chain.OrderFulfilled, fresh.Nodes["wholesaler"].IncomingOrders[0].Status)
	assert.Equal(t, 2, fresh.ShipmentsInTransit[0].ETA)
	assert.Contains(t, fresh.Nodes, "retailer")
}

func TestDigitalTwin_BackloggedOrderFulfilledWhenStockArrives(t *testing.T) {
	// retailer orders more than the wholesaler holds; the order waits until
	// the wholesaler's own replenishment lands.
	dt := NewBeerGame()
	big, err := dt.PlaceOrder(chain.NewOrder(beer, 250, "", "retailer"))
	require.NoError(t, err)
	bigID := big.OutgoingOrders[0].OrderID
	_, err = dt.PlaceOrder(chain.NewOrder(beer, 100, "", "wholesaler"))
	require.NoError(t, err)

	dt.Step() // distributor ships 100 to the wholesaler; retailer's order backlogged
	st := dt.GetFullState()
	assert.Equal(t, chain.OrderPending, st.Nodes["wholesaler"].IncomingOrders[0].Status)
	assert.Equal(t, 200, st.Nodes["wholesaler"].Inventory[beer])

	dt.Step()
	dt.Step() // shipment lands at the start of step 3, the sweep then fulfills the backlog
	st = dt.GetFullState()
	got := st.Nodes["wholesaler"].IncomingOrders[0]
	assert.Equal(t, bigID, got.OrderID)
	assert.Equal(t, chain.OrderFulfilled, got.Status)
	assert.Equal(t, 50, st.Nodes["wholesaler"].Inventory[beer])
}

func TestDigitalTwin_Conservation(t *testing.T) {
	// BDD: inventory plus in-transit units stay constant across twin operations.
	dt := NewBeerGame()
	start := dt.GetFullState().TotalUnits(beer)

	nodes := []string{"retailer", "wholesaler", "distributor"}
	for step := 0; step < 30; step++ {
		node := nodes[step%len(nodes)]
		_, err := dt.PlaceOrder(chain.NewOrder(beer, 15+step*7, "", node))
		require.NoError(t, err)
		dt.Step()
		assert.Equal(t, start, dt.GetFullState().TotalUnits(beer), "step %d", step)
	}
}

func TestDigitalTwin_OrderMonotonicityAndShipmentTraceability(t *testing.T) {
	dt := NewBeerGame()
	seen := map[string]chain.OrderStatus{}
	shipmentsByOrder := map[string]int{}

	for step := 0; step < 20; step++ {
		_, err := dt.PlaceOrder(chain.NewOrder(beer, 30+step*10, "", "retailer"))
		require.NoError(t, err)
		dt.Step()
		st := dt.GetFullState()

		orderIDs := map[string]bool{}
		for _, n := range st.Nodes {
			for _, o := range n.IncomingOrders {
				orderIDs[o.OrderID] = true
				if prev, ok := seen[o.OrderID]; ok && prev == chain.OrderFulfilled {
					assert.Equal(t, chain.OrderFulfilled, o.Status, "order %s regressed", o.OrderID)
				}
				seen[o.OrderID] = o.Status
			}
		}
		for _, s := range st.ShipmentsInTransit {
			assert.True(t, orderIDs[s.OrderID], "shipment %s has no order", s.ShipmentID)
			assert.Greater(t, s.ETA, 0, "delivered shipment still in transit")
			if s.ETA == DefaultTransitDelay {
				shipmentsByOrder[s.OrderID]++
			}
		}
	}
	for id, n := range shipmentsByOrder {
		assert.Equal(t, 1, n, "order %s shipped more than once", id)
	}
}

func TestDigitalTwin_ConcurrentReadersSeeStepBoundaries(t *testing.T) {
	dt := NewBeerGame()
	total := dt.GetFullState().TotalUnits(beer)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := dt.PlaceOrder(chain.NewOrder(beer, 1+i%25, "", "retailer")); err != nil {
				t.Error(err)
				return
			}
			dt.Step()
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				st := dt.GetFullState()
				if got := st.TotalUnits(beer); got != total {
					t.Errorf("snapshot at step %d has %d units, want %d", st.CurrentStep, got, total)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, dt.CurrentStep())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.Error(t, err)

	_, err = New(chain.BeerGame(), Config{TransitDelay: 0})
	assert.Error(t, err)
}

func TestNew_CustomTopology(t *testing.T) {
	topo, err := chain.NewTopology([]chain.NodeSpec{
		{Name: "Shop", Type: "Retailer", Upstream: "Factory", Inventory: map[string]int{beer: 5}},
		{Name: "Factory", Type: "Brewery", Inventory: map[string]int{beer: 50}},
	})
	require.NoError(t, err)
	dt, err := New(topo, Config{TransitDelay: 1})
	require.NoError(t, err)

	_, err = dt.PlaceOrder(chain.NewOrder(beer, 10, "", "shop"))
	require.NoError(t, err)
	dt.Step() // fulfilled, eta 1
	dt.Step() // delivered

	shop, ok := dt.GetNodeState("SHOP")
	require.True(t, ok)
	assert.Equal(t, 15, shop.Inventory[beer])
}

type recordingSink struct {
	periods []chain.ChainStatus
	err     error
}

func (s *recordingSink) RecordPeriod(_ context.Context, status chain.ChainStatus) error {
	if s.err != nil {
		return s.err
	}
	s.periods = append(s.periods, status)
	return nil
}

func TestDigitalTwin_Record(t *testing.T) {
	dt := NewBeerGame()
	sink := &recordingSink{}

	dt.Step()
	require.NoError(t, dt.Record(context.Background(), sink))
	dt.Step()
	require.NoError(t, dt.Record(context.Background(), sink))

	require.Len(t, sink.periods, 2)
	assert.Equal(t, 1, sink.periods[0].CurrentStep)
	assert.Equal(t, 2, sink.periods[1].CurrentStep)
}

func TestDigitalTwin_RecordFailureLeavesStateUntouched(t *testing.T) {
	dt := NewBeerGame()
	boom := errors.New("erp unavailable")
	before := dt.GetFullState()

	err := dt.Record(context.Background(), &recordingSink{err: boom})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, dt.GetFullState())
}
