package main

import (
	"slices"
	"testing"
)

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"VC-002", "DTD-011", "VC-002", "DTD-011", "VC-001"})
	want := []string{"DTD-011", "VC-001", "VC-002"}
	if !slices.Equal(got, want) {
		t.Errorf("dedupe = %v, want %v", got, want)
	}
	if got := dedupe(nil); len(got) != 0 {
		t.Errorf("dedupe(nil) = %v", got)
	}
}

func TestRunCheckerMissingBinary(t *testing.T) {
	if _, _, err := runChecker("x.dtd", "./does-not-exist", false); err == nil {
		t.Error("expected an error for a missing binary")
	}
}
