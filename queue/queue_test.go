package queue

import (
	"testing"
	"time"

	"github.com/MohitThorat/kvserver/digest"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	q.Enqueue(NewUpsert(digest.OfString("a"), "a", []byte("1")))
	q.Enqueue(NewUpsert(digest.OfString("b"), "b", []byte("2")))
	q.Enqueue(NewDelete(digest.OfString("c")))

	first, ok := q.Dequeue()
	if !ok || first.Key != "a" {
		t.Fatalf("want a first, got %+v ok=%v", first, ok)
	}
	second, ok := q.Dequeue()
	if !ok || second.Key != "b" {
		t.Fatalf("want b second, got %+v ok=%v", second, ok)
	}
	third, ok := q.Dequeue()
	if !ok || third.Kind != Delete {
		t.Fatalf("want delete third, got %+v ok=%v", third, ok)
	}
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q, _ := New(Options{})

	done := make(chan Task, 1)
	go func() {
		task, ok := q.Dequeue()
		if ok {
			done <- task
		}
	}()

	select {
	case <-done:
		t.Fatal("Dequeue returned before any Enqueue")
	case <-time.After(20 * time.Millisecond):
	}

	q.Enqueue(NewDelete(digest.OfString("x")))

	select {
	case task := <-done:
		if task.Kind != Delete {
			t.Fatalf("want delete, got %+v", task)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue never woke after Enqueue")
	}
}

func TestQueue_CloseUnblocksWaitersAfterDrain(t *testing.T) {
	q, _ := New(Options{})
	q.Enqueue(NewDelete(digest.OfString("only")))
	q.Close()

	if _, ok := q.Dequeue(); !ok {
		t.Fatal("Dequeue must still return the already-enqueued task after Close")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue must return ok=false once drained after Close")
	}
}

func TestNew_RejectsCoalesceWrites(t *testing.T) {
	if _, err := New(Options{CoalesceWrites: true}); err == nil {
		t.Fatal("want error for unimplemented CoalesceWrites")
	}
}
