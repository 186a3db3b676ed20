package main

import (
	"flag"
	"testing"
)

func TestIsFlagSet(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"printer jam"}, false},
		{[]string{"-location", "0", "printer jam"}, true},
		{[]string{"-location=7", "printer jam"}, true},
	}
	for _, tt := range tests {
		fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
		loc := fs.Int("location", 0, "")
		if err := fs.Parse(tt.args); err != nil {
			t.Fatal(err)
		}
		if got := isFlagSet(fs, "location"); got != tt.want {
			t.Errorf("isFlagSet(%v) = %v, want %v (location %d)", tt.args, got, tt.want, *loc)
		}
	}
}
