package database

import "testing"

func TestFormatOrderNumber(t *testing.T) {
	cases := []struct {
		seq  int64
		want string
	}{
		{1, "VPH000001"},
		{123, "VPH000123"},
		{999999, "VPH999999"},
		{1000000, "VPH1000000"},
	}
	for _, tc := range cases {
		if got := FormatOrderNumber(tc.seq); got != tc.want {
			t.Fatalf("FormatOrderNumber(%d) = %s, want %s", tc.seq, got, tc.want)
		}
	}
}
