package auction

import "github.com/mcdev12/auctionhouse/go/internal/auction/events"

// Fanout delivers each event to every underlying publisher. Each member must
// honor the Publisher contract and never block; Fanout adds nothing on top.
type Fanout []Publisher

func (f Fanout) Publish(e events.Envelope) {
	for _, p := range f {
		p.Publish(e)
	}
}
