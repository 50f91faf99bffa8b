package model

import "github.com/cloudwego/eino/schema"

// Event is produced by the dispatch loop and consumed by the result normalizer.
// It is either a BatchedEvent or an IncrementalEvent.
type Event interface {
	isEvent()
}

// BatchedEvent carries every message of a completed turn.
type BatchedEvent struct {
	Messages []*schema.Message
}

// IncrementalEvent carries the outputs of nodes that completed since the last event.
type IncrementalEvent struct {
	Updates []NodeUpdate
}

// NodeUpdate is the output of one node, keyed by channel name.
type NodeUpdate struct {
	Node     string
	Channels []Channel
}

// Channel holds a node output value. Messages is set for message lists;
// Value holds any other payload.
type Channel struct {
	Key      string
	Messages []*schema.Message
	Value    any
}

func (BatchedEvent) isEvent()     {}
func (IncrementalEvent) isEvent() {}

// MessagesChannel is the channel name carrying message lists.
const MessagesChannel = "messages"
