package alchemy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	body := `{
		"webhookId": "wh_abc123",
		"id": "whevt_001",
		"createdAt": "2024-03-01T12:00:00.000Z",
		"type": "GRAPHQL",
		"event": {
			"network": "MATIC_MAINNET",
			"activity": [
				{
					"hash": "0xdeadbeef",
					"blockNum": "0x34ab",
					"log": {
						"decoded": {
							"name": "DisputePrice",
							"params": [
								{"name": "proposedPrice", "value": 1000000000000000000},
								{"name": "timestamp", "value": 1709294400}
							]
						}
					}
				}
			]
		}
	}`

	p, err := Parse([]byte(body))
	assert.NoError(t, err)
	assert.Equal(t, "wh_abc123", p.WebhookID)
	assert.Equal(t, "MATIC_MAINNET", p.Event.Network)
	assert.Len(t, p.Event.Activity, 1)

	// Large integers must keep their exact decimal text
	params := p.Event.Activity[0].Log.Decoded.ParamMap()
	assert.Equal(t, "1000000000000000000", params["proposedPrice"])
	assert.Equal(t, "1709294400", params["timestamp"])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(""))
	assert.Error(t, err)

	_, err = Parse([]byte("{not json"))
	assert.Error(t, err)

	// The payload must be a JSON object, not a bare value
	_, err = Parse([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`"hello"`))
	assert.Error(t, err)
}

func TestParse_TrailingData(t *testing.T) {
	// Leftover bytes after the object mean the body was never one payload
	_, err := Parse([]byte(`{"webhookId": "wh_1"}garbage`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"webhookId": "wh_1"}{"webhookId": "wh_2"}`))
	assert.Error(t, err)

	// Trailing whitespace is not leftover data
	p, err := Parse([]byte("{\"webhookId\": \"wh_1\"}\n  "))
	assert.NoError(t, err)
	assert.Equal(t, "wh_1", p.WebhookID)
}

func TestParse_UnknownKeysOnly(t *testing.T) {
	// A body made of unrecognized keys is still a non-empty payload
	p, err := Parse([]byte(`{"foo": "bar"}`))
	assert.NoError(t, err)
	assert.False(t, p.Empty())

	p, err = Parse([]byte(`{}`))
	assert.NoError(t, err)
	assert.True(t, p.Empty())

	p, err = Parse([]byte(`null`))
	assert.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestPayload_Empty(t *testing.T) {
	var nilPayload *Payload
	assert.True(t, nilPayload.Empty())
	assert.True(t, (&Payload{}).Empty())

	assert.False(t, (&Payload{ID: "whevt_001"}).Empty())
	assert.False(t, (&Payload{Event: &Event{}}).Empty())
	assert.False(t, (&Payload{CreatedAt: "2024-03-01T12:00:00.000Z"}).Empty())
}

func TestParamMap_LastWriteWins(t *testing.T) {
	d := &DecodedEvent{
		Name: "DisputePrice",
		Params: []Param{
			{Name: "disputer", Value: "0x1111"},
			{Name: "disputer", Value: "0x2222"},
		},
	}
	assert.Equal(t, "0x2222", d.ParamMap()["disputer"])
}

func TestParamMap_ValueKinds(t *testing.T) {
	d := &DecodedEvent{
		Params: []Param{
			{Name: "str", Value: "hello"},
			{Name: "num", Value: json.Number("500000000000000000")},
			{Name: "flt", Value: float64(1e18)},
			{Name: "small", Value: float64(0)},
			{Name: "flag", Value: true},
			{Name: "null", Value: nil},
		},
	}
	m := d.ParamMap()
	assert.Equal(t, "hello", m["str"])
	assert.Equal(t, "500000000000000000", m["num"])
	// float64 must not collapse to scientific notation
	assert.Equal(t, "1000000000000000000", m["flt"])
	assert.Equal(t, "0", m["small"])
	assert.Equal(t, "true", m["flag"])
	assert.Equal(t, "", m["null"])
}
