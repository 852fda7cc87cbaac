package queue

import "github.com/MohitThorat/kvserver/digest"

// Task is a tagged variant of the two durable-store mutations the
// write-behind path can enqueue. Exactly one of the two constructors below
// should be used to build a Task; Kind identifies which fields are valid.
type Task struct {
	Kind Kind

	Digest digest.Key
	Key    string // only valid when Kind == Upsert
	Value  []byte // only valid when Kind == Upsert
}

// Kind discriminates a Task's variant.
type Kind int

const (
	Upsert Kind = iota
	Delete
)

// NewUpsert builds an Upsert task.
func NewUpsert(d digest.Key, key string, value []byte) Task {
	return Task{Kind: Upsert, Digest: d, Key: key, Value: value}
}

// NewDelete builds a Delete task.
func NewDelete(d digest.Key) Task {
	return Task{Kind: Delete, Digest: d}
}
