package exclude

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Exclude
		wantErr bool
	}{
		{in: "org.a:lib1", want: Exclude{Org: "org.a", Name: "lib1"}},
		{in: "org.a", want: Exclude{Org: "org.a"}},
		{in: "  org.a : lib1 ", want: Exclude{Org: "org.a", Name: "lib1"}},
		{in: "org.a:", want: Exclude{Org: "org.a"}},
		{in: "", wantErr: true},
		{in: ":lib1", wantErr: true},
		{in: "a:b:c", wantErr: true},
		{in: "org\xff:lib", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Parse = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"org.a:lib1", "org.b"} {
		e, err := Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		if e.String() != s {
			t.Fatalf("String() = %q, want %q", e.String(), s)
		}
	}
}

func TestParseAll_StopsAtFirstError(t *testing.T) {
	if _, err := ParseAll([]string{"org.a", "", "org.b"}); err == nil {
		t.Fatal("expected error")
	}
	got, err := ParseAll([]string{"org.a:x", "org.b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Org != "org.b" {
		t.Fatalf("ParseAll = %+v", got)
	}
}
