package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("pipeline: %w", New(KindTranscode, cause))

	kind, ok := KindOf(err)
	if !ok {
		t.Fatal("expected kind to be found")
	}
	if kind != KindTranscode {
		t.Errorf("expected %q, got %q", KindTranscode, kind)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !Is(err, KindTranscode) || Is(err, KindSend) {
		t.Error("Is mismatch")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain error should carry no kind")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("nil should carry no kind")
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindSend, errors.New("rejected"))
	if got := err.Error(); got != "send failure: rejected" {
		t.Errorf("unexpected message %q", got)
	}
}
