package dispute

// Notification is the normalized, display-ready form of one dispute
// event. Requester, Proposer and EventTime are empty when the payload
// shape did not carry them.
type Notification struct {
	Title        string `json:"title"`
	Outcome      string `json:"outcome"`
	Disputer     string `json:"disputer"`
	Requester    string `json:"requester,omitempty"`
	Proposer     string `json:"proposer,omitempty"`
	Network      string `json:"network"`
	ExplorerBase string `json:"explorer_base"`
	TxHash       string `json:"tx_hash"`
	TxLink       string `json:"tx_link"`
	EventTime    string `json:"event_time,omitempty"`
	CreatedAt    string `json:"created_at"`
}
