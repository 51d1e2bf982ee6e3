package reflow

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor " +
	"incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud " +
	"exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat."

func TestWrapRespectsWidthAndKeepsWords(t *testing.T) {
	for _, tc := range []struct {
		width  int
		indent int
	}{
		{100, 0},
		{40, 0},
		{96, 4},
		{20, 2},
	} {
		wrapped := Wrap(lorem, tc.width, tc.indent)

		for _, line := range strings.Split(wrapped, "\n") {
			if utf8.RuneCountInString(line) > tc.width {
				t.Fatalf("line %q exceeds width %d", line, tc.width)
			}
			if !strings.HasPrefix(line, strings.Repeat(" ", tc.indent)) {
				t.Fatalf("line %q is missing indent %d", line, tc.indent)
			}
		}

		if got, want := strings.Fields(wrapped), strings.Fields(lorem); strings.Join(got, " ") != strings.Join(want, " ") {
			t.Fatalf("words changed after wrapping at width %d", tc.width)
		}
	}
}

func TestWrapLeavesLongWordWhole(t *testing.T) {
	long := strings.Repeat("x", 30)

	wrapped := Wrap("short "+long+" tail", 10, 0)

	want := "short\n" + long + "\ntail"
	if wrapped != want {
		t.Fatalf("unexpected wrap:\n%s\nwant:\n%s", wrapped, want)
	}
}

func TestWrapEmpty(t *testing.T) {
	if got := Wrap(" \t\n ", 80, 4); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestWrapParagraphs(t *testing.T) {
	text := "First paragraph\nspans two lines.\n\n   \nSecond one."

	got := WrapParagraphs(text, 100, 2)
	want := "  First paragraph\n\n  spans two lines.\n\n  Second one."

	if got != want {
		t.Fatalf("unexpected paragraphs:\n%q\nwant:\n%q", got, want)
	}
}

func TestWrapCountsRunes(t *testing.T) {
	got := Wrap("żółw żółw żółw", 9, 0)

	if got != "żółw żółw\nżółw" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapKeepsSpaceRunsWithinLine(t *testing.T) {
	if got := Wrap("a  b   c", 80, 0); got != "a  b   c" {
		t.Fatalf("unexpected wrap: %q", got)
	}

	if got := Wrap("  lead  word    next", 10, 0); got != "lead  word\nnext" {
		t.Fatalf("unexpected wrap at break: %q", got)
	}
}
