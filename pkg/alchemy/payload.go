package alchemy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Payload is the top-level body of an Alchemy Notify webhook delivery.
// The upstream shape is open; unrecognized envelope keys still count
// toward the payload being non-empty.
type Payload struct {
	WebhookID string `json:"webhookId"`
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Type      string `json:"type"`
	Event     *Event `json:"event,omitempty"`

	keys int
}

// Event groups the network name with the batch of activity entries.
type Event struct {
	Network  string     `json:"network"`
	Activity []Activity `json:"activity"`
}

// Activity is a single on-chain occurrence reported in a payload.
type Activity struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	BlockNum    string `json:"blockNum"`
	Hash        string `json:"hash"`
	Category    string `json:"category"`
	Log         *Log   `json:"log,omitempty"`
}

// Log carries a receipt log plus the indexer's decoded view of it.
// Decoded is nil when the upstream indexer could not decode the log;
// such entries are valid and simply skipped downstream.
type Log struct {
	Address string        `json:"address"`
	Topics  []string      `json:"topics"`
	Data    string        `json:"data"`
	Decoded *DecodedEvent `json:"decoded,omitempty"`
}

// DecodedEvent is the ABI-decoded form of a log: the event name plus
// its ordered parameters.
type DecodedEvent struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// Param is one decoded event parameter. Value stays an untyped JSON
// token; bodies parsed with Parse keep big integers as json.Number so
// fixed-point prices survive with their exact decimal text.
type Param struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Type  string      `json:"type,omitempty"`
}

// Parse unmarshals a webhook body. The body must be exactly one JSON
// object; numeric param values are decoded as json.Number instead of
// float64. The top-level key count is kept so Empty can tell a body
// made only of unrecognized keys from a bare {}.
func Parse(data []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after payload")
	}

	sdec := json.NewDecoder(bytes.NewReader(data))
	sdec.UseNumber()
	var p Payload
	if err := sdec.Decode(&p); err != nil {
		return nil, err
	}
	p.keys = len(fields)
	return &p, nil
}

// Empty reports whether the payload carries no content at all. Parsed
// bodies are judged structurally, so {"foo":"bar"} is non-empty even
// though no field matched; the envelope check covers payloads built
// directly in code.
func (p *Payload) Empty() bool {
	if p == nil {
		return true
	}
	if p.keys > 0 {
		return false
	}
	return p.Event == nil && p.WebhookID == "" && p.ID == "" && p.Type == "" && p.CreatedAt == ""
}

// ParamMap flattens decoded params into a name to value lookup. Param
// order inside one event has no meaning for lookup; on duplicate names
// the last value wins.
func (d *DecodedEvent) ParamMap() map[string]string {
	m := make(map[string]string, len(d.Params))
	for _, p := range d.Params {
		m[p.Name] = paramString(p.Value)
	}
	return m
}

// paramString renders a param value in its canonical string form.
// json.Number keeps the wire text; the float64 branch covers callers
// that unmarshaled a payload themselves without UseNumber.
func paramString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
