package dispute

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/jrcode-ui/alchemy-discord-bot/pkg/alchemy"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/chain"
)

// EventName is the only decoded event this service reacts to.
const EventName = "DisputePrice"

// DefaultNetwork is assumed when a payload omits event.network.
const DefaultNetwork = "ETH_MAINNET"

const (
	placeholderNA   = "N/A"
	timeUnresolved  = "unresolved"
	eventTimeLayout = "2006-01-02 15:04:05 UTC"
)

// outcomeLabels maps exact proposedPrice strings (18 implied decimal
// digits) to display labels. Anything else passes through verbatim;
// no numeric parsing or rounding happens here.
var outcomeLabels = map[string]string{
	"0":                   "p1 (e.g., NO)",
	"1000000000000000000": "p2 (e.g., YES)",
	"500000000000000000":  "p3 (e.g., 0.5/INVALID)",
}

// Decoder turns raw webhook payloads into dispute notifications.
type Decoder struct {
	event string
}

// NewDecoder builds a decoder watching the DisputePrice event.
func NewDecoder() *Decoder {
	return &Decoder{event: EventName}
}

// DecodePayload walks a payload and returns one notification per
// matching activity item. Items are decoded independently; one item
// failing never aborts its siblings.
func (d *Decoder) DecodePayload(p *alchemy.Payload) []Notification {
	if p == nil || p.Event == nil || len(p.Event.Activity) == 0 {
		return nil
	}

	var notes []Notification
	for i, act := range p.Event.Activity {
		n, err := d.DecodeActivity(p.Event.Network, p.CreatedAt, act)
		if err != nil {
			log.Debug("Skipping activity item", "index", i, "tx", act.Hash, "reason", err)
			continue
		}
		notes = append(notes, *n)
	}
	return notes
}

// DecodeActivity normalizes a single activity item. It returns an
// error only when the item carries no decoded dispute event; malformed
// fields inside a matching event degrade to placeholders instead.
func (d *Decoder) DecodeActivity(network, createdAt string, act alchemy.Activity) (*Notification, error) {
	if act.Log == nil || act.Log.Decoded == nil {
		return nil, fmt.Errorf("no decoded log data")
	}
	if act.Log.Decoded.Name != d.event {
		return nil, fmt.Errorf("event %q is not %s", act.Log.Decoded.Name, d.event)
	}

	params := act.Log.Decoded.ParamMap()

	if network == "" {
		network = DefaultNetwork
	}
	network = strings.ToUpper(network)
	explorer := chain.Resolve(network)

	hash := act.Hash
	if hash == "" {
		hash = placeholderNA
	}

	n := &Notification{
		Title:        d.resolveTitle(params, hash),
		Outcome:      resolveOutcome(params),
		Disputer:     paramOrNA(params, "disputer"),
		Requester:    params["requester"],
		Proposer:     params["proposer"],
		Network:      network,
		ExplorerBase: explorer.BaseURL,
		TxHash:       hash,
		TxLink:       explorer.TxURL(hash),
		EventTime:    resolveEventTime(params),
		CreatedAt:    createdAt,
	}
	return n, nil
}

// resolveTitle extracts the human-readable market title from the
// ancillary data, falling back to the raw market identifier when the
// data is absent, malformed or carries no title token.
func (d *Decoder) resolveTitle(params map[string]string, hash string) string {
	if hexData := params["ancillaryData"]; hexData != "" && hexData != "0x" {
		text, err := DecodeAncillary(hexData)
		if err != nil {
			log.Warn("Failed to decode ancillary data", "tx", hash, "err", err)
		} else if title, ok := ExtractTitle(text); ok {
			return title
		}
	}
	return "Market Identifier: `" + paramOrNA(params, "identifier") + "`"
}

// resolveOutcome maps the proposed price to its display label. Only
// exact string matches are translated.
func resolveOutcome(params map[string]string) string {
	raw, ok := params["proposedPrice"]
	if !ok || raw == "" {
		return placeholderNA
	}
	if label, found := outcomeLabels[raw]; found {
		return label
	}
	return raw
}

// resolveEventTime renders the event-level unix timestamp as absolute
// UTC. Absent timestamps yield an empty string, unparseable ones an
// explicit marker.
func resolveEventTime(params map[string]string) string {
	ts, ok := params["timestamp"]
	if !ok || ts == "" {
		return ""
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return timeUnresolved
	}
	return time.Unix(sec, 0).UTC().Format(eventTimeLayout)
}

func paramOrNA(params map[string]string, name string) string {
	if v := params[name]; v != "" {
		return v
	}
	return placeholderNA
}
