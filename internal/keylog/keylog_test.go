package keylog

import (
	"bytes"
	"strings"
	"testing"
)

func testRecord(cr, ms byte) Record {
	var rec Record
	for i := range rec.ClientRandom {
		rec.ClientRandom[i] = cr
	}
	for i := range rec.MasterSecret {
		rec.MasterSecret[i] = ms
	}
	return rec
}

func TestLineGolden(t *testing.T) {
	rec := testRecord(0xAA, 0xBB)

	want := "CLIENT_RANDOM " +
		strings.Repeat("AA", 32) + " " +
		strings.Repeat("BB", 48)
	if got := rec.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
	if len(rec.Line()) != len("CLIENT_RANDOM")+1+64+1+96 {
		t.Errorf("line length = %d", len(rec.Line()))
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	recs := []Record{
		{},
		testRecord(0xAA, 0xBB),
		testRecord(0x00, 0xFF),
		func() Record {
			var r Record
			for i := range r.ClientRandom {
				r.ClientRandom[i] = byte(i)
			}
			for i := range r.MasterSecret {
				r.MasterSecret[i] = byte(255 - i)
			}
			return r
		}(),
	}

	for _, rec := range recs {
		got, err := ParseLine(rec.Line())
		if err != nil {
			t.Fatalf("ParseLine(%q) failed: %v", rec.Line(), err)
		}
		if got != rec {
			t.Errorf("round trip mismatch for %q", rec.Line())
		}
	}
}

func TestParseLineLowercase(t *testing.T) {
	rec := testRecord(0xAB, 0xCD)
	got, err := ParseLine(strings.ToLower(rec.Line()))
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if got != rec {
		t.Error("lowercase line did not round trip")
	}
}

func TestParseLineRejects(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"wrong label", "SERVER_RANDOM " + strings.Repeat("AA", 32) + " " + strings.Repeat("BB", 48)},
		{"short random", "CLIENT_RANDOM " + strings.Repeat("AA", 31) + " " + strings.Repeat("BB", 48)},
		{"short secret", "CLIENT_RANDOM " + strings.Repeat("AA", 32) + " " + strings.Repeat("BB", 47)},
		{"not hex", "CLIENT_RANDOM " + strings.Repeat("ZZ", 32) + " " + strings.Repeat("BB", 48)},
		{"missing field", "CLIENT_RANDOM " + strings.Repeat("AA", 32)},
		{"extra field", testRecord(1, 2).Line() + " extra"},
	}

	for _, tc := range cases {
		if _, err := ParseLine(tc.line); err == nil {
			t.Errorf("%s: ParseLine accepted %q", tc.name, tc.line)
		}
	}
}

func TestMergeDedup(t *testing.T) {
	a := testRecord(0x01, 0x11)
	b := testRecord(0x02, 0x22)
	c := testRecord(0x03, 0x33)

	in1 := a.Line() + "\n" + b.Line() + "\n"
	in2 := "# header comment\n" + b.Line() + "\n" + c.Line() + "\nnot a keylog line\n"

	var out bytes.Buffer
	sum, err := Merge(&out, strings.NewReader(in1), strings.NewReader(in2))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if sum.Written != 3 || sum.Duplicate != 1 || sum.Malformed != 1 {
		t.Errorf("summary = %+v, want 3 written, 1 duplicate, 1 malformed", sum)
	}
	want := a.Line() + "\n" + b.Line() + "\n" + c.Line() + "\n"
	if out.String() != want {
		t.Errorf("merged output = %q, want %q", out.String(), want)
	}
}

func TestLint(t *testing.T) {
	in := testRecord(1, 2).Line() + "\n\ngarbage\n" + testRecord(1, 2).Line() + "\n"
	sum, err := Lint(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Lint failed: %v", err)
	}
	if sum.Written != 2 || sum.Malformed != 1 {
		t.Errorf("summary = %+v, want 2 written, 1 malformed", sum)
	}
}
