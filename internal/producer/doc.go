// Package producer provides the concrete producers stored in the list.
//
// A Node carries the list bookkeeping (id, link, priority, retirement flag)
// and delegates value production to a Source. Three sources ship:
//
//   - range:  start, start+step, ... up to but excluding stop
//   - list:   a fixed sequence of values
//   - repeat: one value, a fixed number of times
//
// Source state is persisted as canonical JSON so a node loaded from storage
// continues exactly where it left off. Exhaustion is latched on the Node, so
// once a node reports exhaustion it stays exhausted even if its source would
// yield again.
package producer
