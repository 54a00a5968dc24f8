package cinetl_test

import (
	"testing"

	"github.com/cinegraph/cinetl"
)

func TestNexter(t *testing.T) {
	n := cinetl.NewNexter(cinetl.NexterStartFrom(19))
	if num := n.Next(); num != 19 {
		t.Fatalf("expected 19 for Next, but %d", num)
	}
	if num := n.Last(); num != 19 {
		t.Fatalf("expected 19 for Last, but %d", num)
	}
}

func TestNexterStartsAtOne(t *testing.T) {
	n := cinetl.NewNexter()
	if num := n.Last(); num != 0 {
		t.Fatalf("expected 0 for Last before Next, but %d", num)
	}
	if num := n.Next(); num != 1 {
		t.Fatalf("expected 1 for first Next, but %d", num)
	}
}
