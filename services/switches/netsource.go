package switches

import (
	"strconv"

	"servoswitch-go/bus"
	"servoswitch-go/types"
)

// TopicVirtualSet is the control topic for virtual switch i.
func TopicVirtualSet(i int) bus.Topic {
	return bus.T("switches", "virtual", strconv.Itoa(i), "set")
}

// Subscriber is the slice of bus.Connection the network source needs.
type Subscriber interface {
	Subscribe(pattern bus.Topic) *bus.Subscription
}

// subCache drains virtual-switch set messages into a latest-value table.
// All access happens on the poll scheduler's goroutine.
type subCache struct {
	base int
	vals []*bool
	sub  *bus.Subscription
}

func newSubCache(conn Subscriber, base, count int) *subCache {
	return &subCache{
		base: base,
		vals: make([]*bool, count),
		sub:  conn.Subscribe(bus.T("switches", "virtual", bus.Wildcard, "set")),
	}
}

func (c *subCache) drain() {
	for {
		select {
		case msg, ok := <-c.sub.Channel():
			if !ok {
				return
			}
			c.apply(msg)
		default:
			return
		}
	}
}

func (c *subCache) apply(msg *bus.Message) {
	set, ok := msg.Payload.(types.SwitchSet)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(msg.Topic.At(2))
	if err != nil {
		return
	}
	i := idx - c.base
	if i < 0 || i >= len(c.vals) {
		return
	}
	v := set.On
	c.vals[i] = &v
}

func (c *subCache) snapshot() []*bool { return c.vals }
