package store

// EventKind names a list operation recorded in the event log.
type EventKind string

const (
	EventInsert  EventKind = "insert"
	EventProduce EventKind = "produce"
	EventEvict   EventKind = "evict"
	EventSweep   EventKind = "sweep"
	EventRetire  EventKind = "retire"
)

// Event is one entry of the operation log.
// Value is set for produce events only.
type Event struct {
	Seq        int64     `json:"seq"`
	Kind       EventKind `json:"kind"`
	ProducerID string    `json:"producer_id"`
	Label      string    `json:"label"`
	Value      *int64    `json:"value,omitempty"`
}

// EventFilter narrows ReadEvents. Zero fields match everything.
type EventFilter struct {
	ProducerID string
	Kind       EventKind
	AfterSeq   int64
	Limit      int
}
