package erp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/beergame/supplytwin/chain"
)

// Store is an in-memory ERP database. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	products  map[string]Product
	suppliers map[string][]Supplier
	history   []HistoricalRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]Product),
		suppliers: make(map[string][]Supplier),
	}
}

// NewSeededStore returns a store holding the reference catalogue and two
// periods of history.
func NewSeededStore() *Store {
	s := NewStore()
	s.products[chain.DefaultProductID] = Product{Name: "Premium Lager", Cost: 10, LeadTime: 7}
	s.suppliers[chain.DefaultProductID] = []Supplier{
		{Name: "Brewery A", ReliabilityScore: 0.95, Price: 9.5},
		{Name: "Brewery B", ReliabilityScore: 0.88, Price: 8.9},
	}
	s.history = []HistoricalRecord{
		seedRecord(1, [4]int{85, 180, 280, 480}, [3]int{15, 20, 20},
			seedShipment(15, "wholesaler", "retailer", 1)),
		seedRecord(2, [4]int{100, 160, 260, 460}, [3]int{25, 25, 25},
			seedShipment(20, "wholesaler", "retailer", 1),
			seedShipment(25, "distributor", "wholesaler", 2)),
	}
	return s
}

// seedRecord builds a reference-chain period. inv lists retailer to brewery;
// orders lists what the retailer, wholesaler and distributor ordered upstream.
func seedRecord(period int, inv [4]int, orders [3]int, shipments ...chain.Shipment) HistoricalRecord {
	names := []string{"retailer", "wholesaler", "distributor", "brewery"}
	rec := HistoricalRecord{
		Period:             period,
		Nodes:              make(map[string]chain.NodeStatus, len(names)),
		ShipmentsInTransit: shipments,
	}
	placed := make([]chain.Order, len(orders))
	for i, q := range orders {
		placed[i] = chain.NewOrder(chain.DefaultProductID, q, names[i+1], names[i])
	}
	for i, name := range names {
		ns := chain.NodeStatus{
			Name:           name,
			Inventory:      map[string]int{chain.DefaultProductID: inv[i]},
			IncomingOrders: []chain.Order{},
			OutgoingOrders: []chain.Order{},
		}
		if i > 0 {
			ns.IncomingOrders = append(ns.IncomingOrders, placed[i-1])
		}
		if i < len(placed) {
			ns.OutgoingOrders = append(ns.OutgoingOrders, placed[i])
		}
		rec.Nodes[name] = ns
	}
	return rec
}

func seedShipment(qty int, source, dest string, eta int) chain.Shipment {
	return chain.Shipment{
		ShipmentID:      chain.NewID(),
		OrderID:         chain.NewID(),
		ProductID:       chain.DefaultProductID,
		Quantity:        qty,
		SourceNode:      source,
		DestinationNode: dest,
		ETA:             eta,
	}
}

// Product returns the catalogue entry for id.
func (s *Store) Product(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[strings.ToLower(id)]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", id, chain.ErrNotFound)
	}
	return p, nil
}

// Suppliers returns the suppliers of product id. An unknown product has none.
func (s *Store) Suppliers(id string) []Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Supplier{}, s.suppliers[strings.ToLower(id)]...)
}

// HistoricalData returns every recorded period, oldest first.
func (s *Store) HistoricalData(_ context.Context) ([]HistoricalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HistoricalRecord, len(s.history))
	for i, rec := range s.history {
		out[i] = recordFromStatus(rec.Status())
	}
	return out, nil
}

// RecordPeriod appends st to the history.
func (s *Store) RecordPeriod(_ context.Context, st chain.ChainStatus) error {
	if st.Nodes == nil {
		return fmt.Errorf("period %d has no nodes", st.CurrentStep)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, recordFromStatus(st))
	return nil
}
