package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beergame/supplytwin/chain"
	"github.com/beergame/supplytwin/erp"
	"github.com/beergame/supplytwin/sim"
	"github.com/beergame/supplytwin/sim/policy"
	"github.com/beergame/supplytwin/sim/trace"
)

var (
	simPolicy     string            // Single policy to evaluate instead of the scenario list
	simParams     map[string]string // Parameters for --policy
	simExpression string            // Expression for --policy expression
	simTraceLevel string            // Decision trace level
	simSteps      int               // Overrides the scenario's steps
	simSeed       int64             // Overrides the scenario's seed
	simFromERP    string            // Start from the latest ERP history record
	simJSON       bool              // Print full results as JSON
)

// HistoryFeed supplies recorded chain snapshots, oldest first.
type HistoryFeed interface {
	HistoricalData(ctx context.Context) ([]erp.HistoricalRecord, error)
}

// latestSnapshot returns the most recent recorded period.
func latestSnapshot(ctx context.Context, feed HistoryFeed) (chain.ChainStatus, error) {
	history, err := feed.HistoricalData(ctx)
	if err != nil {
		return chain.ChainStatus{}, fmt.Errorf("fetching history: %w", err)
	}
	if len(history) == 0 {
		return chain.ChainStatus{}, errors.New("history is empty")
	}
	latest := history[0]
	for _, rec := range history[1:] {
		if rec.Period >= latest.Period {
			latest = rec
		}
	}
	return latest.Status(), nil
}

// flagPolicy builds the --policy override as a one-entry policy list.
func flagPolicy(name string, params map[string]string, expression string) ([]PolicyEntry, error) {
	spec := policy.Spec{Policy: name, Expression: expression}
	if len(params) > 0 {
		spec.Params = make(map[string]float64, len(params))
		for k, v := range params {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("--param %s=%s: not a number", k, v)
			}
			spec.Params[k] = f
		}
	}
	return []PolicyEntry{{Spec: spec}}, nil
}

// buildRequests pairs every policy with the same snapshot and seed.
func buildRequests(sc Scenario, initial chain.ChainStatus, level trace.TraceLevel) ([]sim.Request, error) {
	names, policies, err := sc.BuildPolicies()
	if err != nil {
		return nil, err
	}
	reqs := make([]sim.Request, len(policies))
	for i, p := range policies {
		reqs[i] = sim.Request{
			InitialState: initial,
			Policy:       p,
			Steps:        sc.Steps,
			ScenarioName: names[i],
			Seed:         sc.Seed,
			TraceLevel:   level,
		}
	}
	return reqs, nil
}

// printCostTable writes one row per result; the best row is starred.
func printCostTable(w io.Writer, results []*sim.Results) {
	best := sim.Best(results)
	fmt.Fprintf(w, "%-2s %-28s %-40s %12s %9s\n", "", "SCENARIO", "POLICY", "TOTAL COST", "STOCKOUTS")
	for i, r := range results {
		mark := ""
		if i == best {
			mark = "*"
		}
		fmt.Fprintf(w, "%-2s %-28s %-40s %12.2f %9d\n", mark, r.ScenarioName, r.PolicyName, r.TotalCost, r.StockoutEvents)
	}
}

// printTraceSummaries writes per-node fill rates for traced runs.
func printTraceSummaries(w io.Writer, results []*sim.Results) {
	for _, r := range results {
		if r.Trace == nil {
			continue
		}
		s := trace.Summarize(r.Trace)
		fmt.Fprintf(w, "\n=== %s: %d decisions ===\n", r.ScenarioName, s.TotalDecisions)
		nodes := make([]string, 0, len(s.Nodes))
		for n := range s.Nodes {
			nodes = append(nodes, n)
		}
		sort.Strings(nodes)
		for _, n := range nodes {
			ns := s.Nodes[n]
			fmt.Fprintf(w, "%-12s fill rate %5.1f%%  stockouts %3d  max order %4d\n", n, ns.FillRate*100, ns.Stockouts, ns.MaxOrder)
		}
	}
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Compare ordering policies from a twin snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadScenario()
		if cmd.Flags().Changed("steps") {
			sc.Steps = simSteps
		}
		if cmd.Flags().Changed("seed") {
			sc.Seed = simSeed
		}
		if simPolicy != "" {
			entries, err := flagPolicy(simPolicy, simParams, simExpression)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			sc.Policies = entries
		}
		if !trace.IsValidTraceLevel(simTraceLevel) {
			logrus.Fatalf("Unknown trace level: %s", simTraceLevel)
		}

		ctx := cmd.Context()
		var initial chain.ChainStatus
		if simFromERP != "" {
			client, err := erp.NewClient(simFromERP, nil)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			initial, err = latestSnapshot(ctx, client)
			if err != nil {
				logrus.Fatalf("Failed to load ERP snapshot: %v", err)
			}
			logrus.Infof("starting from ERP period %d", initial.CurrentStep)
		} else {
			dt, err := sc.BuildTwin()
			if err != nil {
				logrus.Fatalf("Failed to build twin: %v", err)
			}
			initial = dt.GetFullState()
		}

		cfg, err := sc.EngineConfig()
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		engine, err := sim.NewEngine(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		reqs, err := buildRequests(sc, initial, trace.TraceLevel(simTraceLevel))
		if err != nil {
			logrus.Fatalf("Invalid policies: %v", err)
		}
		results, err := engine.Compare(ctx, reqs)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if simJSON {
			if err := writeJSON(os.Stdout, results); err != nil {
				logrus.Fatalf("Failed to write results: %v", err)
			}
			return
		}
		printCostTable(os.Stdout, results)
		printTraceSummaries(os.Stdout, results)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simPolicy, "policy", "", "Evaluate only this policy (one of the built-in names)")
	simulateCmd.Flags().StringToStringVar(&simParams, "param", nil, "Parameters for --policy, e.g. level=150,alpha=0.3")
	simulateCmd.Flags().StringVar(&simExpression, "expression", "", "Arithmetic expression for --policy expression")
	simulateCmd.Flags().StringVar(&simTraceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	simulateCmd.Flags().IntVar(&simSteps, "steps", sim.DefaultSteps, "Number of time units to simulate")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 42, "Seed for customer demand")
	simulateCmd.Flags().StringVar(&simFromERP, "from-erp", "", "Start from the latest history record of the ERP at this base URL")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "Print full results as JSON")
}
