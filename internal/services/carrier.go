package services

// Carrier hands purchased or delisted goods to an account's holder.
// Deliver returns how many units did not fit; the engine routes those
// through Drop. Delivery failures never roll back a committed trade.
type Carrier interface {
	Deliver(recipient string, itemData string, qty int) (leftover int, err error)
	Drop(recipient string, itemData string, qty int) error
}

// Presence reports whether a recipient can be reached right now, and
// sends to reachable ones. Nil presence means everyone is offline and
// all messages queue.
type Presence interface {
	Online(recipient string) bool
	Send(recipient, text string) error
}

// UnboundedCarrier accepts every delivery in full. Suits the HTTP-only
// deployment, where held items live outside this core.
type UnboundedCarrier struct{}

func (UnboundedCarrier) Deliver(string, string, int) (int, error) { return 0, nil }
func (UnboundedCarrier) Drop(string, string, int) error           { return nil }
