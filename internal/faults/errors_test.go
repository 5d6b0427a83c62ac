package faults_test

import (
	"errors"
	"strings"
	"testing"

	"trepro/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrFormat, "savefig", "load", "sentinel missing", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrFormat) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"savefig", "load", "sentinel missing"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, faults.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "trepro failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsLoadFailure(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{faults.Wrap(faults.ErrNotFound, "savefig", "load", "", nil), true},
		{faults.Wrap(faults.ErrFormat, "frame", "locate", "", nil), true},
		{faults.Wrap(faults.ErrDecode, "codec", "decode", "", nil), true},
		{faults.Wrap(faults.ErrValidation, "chart", "validate", "", nil), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for i, tc := range cases {
		if got := faults.IsLoadFailure(tc.err); got != tc.want {
			t.Fatalf("case %d: IsLoadFailure(%v) = %v, want %v", i, tc.err, got, tc.want)
		}
	}
}
