package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beergame/supplytwin/chain"
	"github.com/beergame/supplytwin/erp"
	"github.com/beergame/supplytwin/twin"
)

var (
	twinSteps      int    // Steps to advance
	twinOrderQty   int    // Standing order quantity
	twinOrderNode  string // Node placing the standing order
	twinOrderEvery int    // Place the standing order every N steps
	twinERPURL     string // Record each period to this ERP
)

// twinRun is one scripted session against the live twin.
type twinRun struct {
	Product    string
	Steps      int
	OrderQty   int
	OrderNode  string
	OrderEvery int
	Sink       twin.PeriodSink // optional
}

// orderDue reports whether the standing order is placed before step i+1.
func (r twinRun) orderDue(i int) bool {
	if r.OrderQty <= 0 {
		return false
	}
	if r.OrderEvery <= 0 {
		return i == 0
	}
	return i%r.OrderEvery == 0
}

// run places the standing order, steps the twin and records each period.
func (r twinRun) run(ctx context.Context, dt *twin.DigitalTwin) error {
	product := r.Product
	if product == "" {
		product = chain.DefaultProductID
	}
	for i := 0; i < r.Steps; i++ {
		if r.orderDue(i) {
			st, err := dt.PlaceOrder(chain.NewOrder(product, r.OrderQty, "", r.OrderNode))
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			logrus.Infof("step %d: %s ordered %d %s", i+1, st.Name, r.OrderQty, product)
		}
		dt.Step()
		if r.Sink != nil {
			if err := dt.Record(ctx, r.Sink); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var twinCmd = &cobra.Command{
	Use:   "twin",
	Short: "Drive the live digital twin and print its final state",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadScenario()
		dt, err := sc.BuildTwin()
		if err != nil {
			logrus.Fatalf("Failed to build twin: %v", err)
		}

		r := twinRun{Product: sc.Product, Steps: twinSteps, OrderQty: twinOrderQty, OrderNode: twinOrderNode, OrderEvery: twinOrderEvery}
		if twinERPURL != "" {
			client, err := erp.NewClient(twinERPURL, nil)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			r.Sink = client
		}
		if err := r.run(cmd.Context(), dt); err != nil {
			logrus.Fatalf("Twin session failed: %v", err)
		}
		if err := writeJSON(os.Stdout, dt.GetFullState()); err != nil {
			logrus.Fatalf("Failed to write state: %v", err)
		}
	},
}

func init() {
	twinCmd.Flags().IntVar(&twinSteps, "steps", 3, "Number of steps to advance")
	twinCmd.Flags().IntVar(&twinOrderQty, "order-quantity", 20, "Standing order quantity (0 disables ordering)")
	twinCmd.Flags().StringVar(&twinOrderNode, "order-node", "retailer", "Node that places the standing order")
	twinCmd.Flags().IntVar(&twinOrderEvery, "order-every", 0, "Place the standing order every N steps (0 places it once, before step 1)")
	twinCmd.Flags().StringVar(&twinERPURL, "erp-url", "", "Record every period to the ERP at this base URL")
}
