package relay

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/jrcode-ui/alchemy-discord-bot/pkg/dispute"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/intake"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/metrics"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/sink"
)

// Processor decodes queued payloads and fans the resulting
// notifications out to every configured output.
type Processor struct {
	decoder     *dispute.Decoder
	outputs     []sink.Output
	sendTimeout time.Duration
}

// NewProcessor wires the decoder to a set of outputs. sendTimeout
// bounds each output delivery; zero selects a default generous enough
// for a full retry cycle of the slowest sink.
func NewProcessor(decoder *dispute.Decoder, outputs []sink.Output, sendTimeout time.Duration) *Processor {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &Processor{
		decoder:     decoder,
		outputs:     outputs,
		sendTimeout: sendTimeout,
	}
}

// Process handles one delivery end to end. Output failures are logged
// and counted, never propagated; the intake response was sent long
// before this runs.
func (p *Processor) Process(ctx context.Context, d intake.Delivery) {
	start := time.Now()

	notes := p.decoder.DecodePayload(d.Payload)
	if d.Payload != nil && d.Payload.Event != nil {
		if skipped := len(d.Payload.Event.Activity) - len(notes); skipped > 0 {
			metrics.ActivitySkipped.Add(float64(skipped))
		}
	}
	if len(notes) == 0 {
		log.Debug("No dispute events in payload", "id", d.ID)
		return
	}
	metrics.DisputesDecoded.Add(float64(len(notes)))

	var wg sync.WaitGroup
	for _, out := range p.outputs {
		wg.Add(1)
		go func(o sink.Output) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
			defer cancel()
			if err := o.Send(sendCtx, notes); err != nil {
				metrics.NotificationErrors.WithLabelValues(o.Name()).Inc()
				log.Error("Output delivery failed", "sink", o.Name(), "id", d.ID, "err", err)
				return
			}
			metrics.NotificationsSent.WithLabelValues(o.Name()).Add(float64(len(notes)))
		}(out)
	}
	wg.Wait()

	metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	log.Info("Dispute notifications dispatched", "id", d.ID, "count", len(notes), "took", time.Since(start))
}
