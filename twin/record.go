package twin

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/beergame/supplytwin/chain"
)

// PeriodSink accepts end-of-period snapshots, e.g. an ERP history log.
// It has no transactional coupling with the twin.
type PeriodSink interface {
	RecordPeriod(ctx context.Context, status chain.ChainStatus) error
}

// Record snapshots the twin and hands the snapshot to sink.
// A sink failure is returned to the caller and leaves twin state untouched.
func (t *DigitalTwin) Record(ctx context.Context, sink PeriodSink) error {
	status := t.GetFullState()
	if err := sink.RecordPeriod(ctx, status); err != nil {
		return fmt.Errorf("recording period %d: %w", status.CurrentStep, err)
	}
	logrus.Debugf("recorded period %d", status.CurrentStep)
	return nil
}
