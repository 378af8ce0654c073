package util

import (
	"reflect"
	"testing"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"simple", "5,9", []int{5, 9}},
		{"spaces", " 9 , 5 ", []int{9, 5}},
		{"duplicates_kept", "9,5,9", []int{9, 5, 9}},
		{"non_numeric_dropped", "9,abc,5,", []int{9, 5}},
		{"all_garbage", "abc, def", []int{}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIDList(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseIDList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueInts(t *testing.T) {
	got := UniqueInts([]int{9, 5, 9, 5, 1})
	want := []int{9, 5, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UniqueInts = %v, want %v", got, want)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("abcdef", 4); got != "abcd..." {
		t.Fatalf("unexpected truncate result: %q", got)
	}
	if got := TruncateString("abc", 4); got != "abc" {
		t.Fatalf("short string must be unchanged: %q", got)
	}
}
