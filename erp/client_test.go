package erp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beergame/supplytwin/chain"
	"github.com/beergame/supplytwin/twin"
)

func newTestClient(t *testing.T, store *Store) *Client {
	t.Helper()
	srv := httptest.NewServer(Router(store))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8000", "://nope"} {
		_, err := NewClient(u, nil)
		assert.Error(t, err, u)
	}
}

func TestClient_ReadsCatalogue(t *testing.T) {
	c := newTestClient(t, NewSeededStore())
	ctx := context.Background()

	p, err := c.Product(ctx, "beer")
	require.NoError(t, err)
	assert.Equal(t, 7, p.LeadTime)

	s, err := c.Suppliers(ctx, "beer")
	require.NoError(t, err)
	assert.Len(t, s, 2)

	_, err = c.Product(ctx, "cider")
	assert.ErrorIs(t, err, chain.ErrNotFound)
}

func TestClient_TwinRecordsEveryPeriod(t *testing.T) {
	// GIVEN a twin recording to the ERP through the client
	store := NewStore()
	c := newTestClient(t, store)
	var sink twin.PeriodSink = c

	dt := twin.NewBeerGame()
	_, err := dt.PlaceOrder(chain.NewOrder(chain.DefaultProductID, 20, "", "retailer"))
	require.NoError(t, err)

	// WHEN the twin steps three times and records after each
	for i := 0; i < 3; i++ {
		dt.Step()
		require.NoError(t, dt.Record(context.Background(), sink))
	}

	// THEN the history holds the three periods in order
	history, err := c.HistoricalData(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, rec := range history {
		assert.Equal(t, i+1, rec.Period)
	}
	assert.Equal(t, 120, history[2].Nodes["retailer"].Inventory[chain.DefaultProductID])
	assert.Equal(t, 180, history[0].Nodes["wholesaler"].Inventory[chain.DefaultProductID])
}

func TestClient_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	srv.Close()
	_, err = c.HistoricalData(context.Background())
	assert.Error(t, err)
}
