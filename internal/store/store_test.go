package store

import "testing"

func TestSanitizeSchema(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "valid", in: "canonpipe", want: "canonpipe"},
		{name: "trims whitespace", in: "  canonpipe  ", want: "canonpipe"},
		{name: "underscore prefix", in: "_runs", want: "_runs"},
		{name: "empty", in: "", wantErr: true},
		{name: "injection attempt", in: "x; DROP TABLE", wantErr: true},
		{name: "dash", in: "canon-pipe", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeSchema(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNullString(t *testing.T) {
	if v := nullString("  "); v.Valid {
		t.Error("blank string must map to NULL")
	}
	if v := nullString("nightly"); !v.Valid || v.String != "nightly" {
		t.Errorf("unexpected value: %+v", v)
	}
}
