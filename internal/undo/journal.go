// Package undo receives "about to mutate" notifications so a host can offer
// reversal. The repair core only announces; it never replays.
package undo

import (
	"sync"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
)

// Recorder is the host's undo service.
type Recorder interface {
	// RecordHierarchy snapshots a whole hierarchy before structural edits.
	RecordHierarchy(root *scene.Node, label string)
	// RecordComponent snapshots one component before it is mutated.
	RecordComponent(owner *scene.Node, label string)
	// RegisterCreated registers a node created by the operation.
	RegisterCreated(node *scene.Node, label string)
}

// Kind classifies a journal entry.
type Kind int

const (
	KindHierarchy Kind = iota
	KindComponent
	KindCreated
)

func (k Kind) String() string {
	switch k {
	case KindHierarchy:
		return "hierarchy"
	case KindComponent:
		return "component"
	case KindCreated:
		return "created"
	}
	return "unknown"
}

// Entry is one recorded notification.
type Entry struct {
	Kind  Kind
	Label string
	// Path is relative to the top of the node's hierarchy.
	Path string
	Node *scene.Node
}

// Journal is an in-memory Recorder.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

func (j *Journal) RecordHierarchy(root *scene.Node, label string) {
	j.add(KindHierarchy, root, label)
}

func (j *Journal) RecordComponent(owner *scene.Node, label string) {
	j.add(KindComponent, owner, label)
}

func (j *Journal) RegisterCreated(node *scene.Node, label string) {
	j.add(KindCreated, node, label)
}

func (j *Journal) add(kind Kind, n *scene.Node, label string) {
	path, _ := hierarchy.RelativePath(n, n.Root())
	j.mu.Lock()
	j.entries = append(j.entries, Entry{Kind: kind, Label: label, Path: path, Node: n})
	j.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.entries...)
}

// Created returns the nodes registered as created, in order.
func (j *Journal) Created() []*scene.Node {
	var out []*scene.Node
	for _, e := range j.Entries() {
		if e.Kind == KindCreated {
			out = append(out, e.Node)
		}
	}
	return out
}

// Nop discards every notification.
type Nop struct{}

func (Nop) RecordHierarchy(*scene.Node, string) {}
func (Nop) RecordComponent(*scene.Node, string) {}
func (Nop) RegisterCreated(*scene.Node, string) {}
