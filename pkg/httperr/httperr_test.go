package httperr

import (
	"fmt"
	"testing"
)

func TestIsBadRequest(t *testing.T) {
	if IsBadRequest(nil) {
		t.Fatalf("expected false for nil")
	}
	if !IsBadRequest(NewBadRequest("bad")) {
		t.Fatalf("expected true for BadRequestError")
	}
	if !IsBadRequest(BadRequestf("field %q", "email")) {
		t.Fatalf("expected true for BadRequestf")
	}
	if !IsBadRequest(fmt.Errorf("query: %w", NewBadRequest("bad"))) {
		t.Fatalf("expected true for wrapped BadRequestError")
	}
	if IsBadRequest(assertErr("other")) {
		t.Fatalf("expected false for non-BadRequestError")
	}
}

func TestBadRequestf_Message(t *testing.T) {
	err := BadRequestf("eq condition for %q has unsupported value type %T", "age", []int(nil))
	want := `eq condition for "age" has unsupported value type []int`
	if err.Error() != want {
		t.Fatalf("message=%q want %q", err.Error(), want)
	}
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
