package registration

import (
	"testing"
)

func TestParseAngleUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    AngleUnit
		wantErr bool
	}{
		{"", Degrees, false},
		{"deg", Degrees, false},
		{"Degrees", Degrees, false},
		{"rad", Radians, false},
		{"radians", Radians, false},
		{"grad", Degrees, true},
	}

	for _, tt := range tests {
		got, err := ParseAngleUnit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAngleUnit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseAngleUnit(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAxisAndKind(t *testing.T) {
	for i, s := range []string{"x", "Y", " z "} {
		a, err := ParseAxis(s)
		if err != nil || a != Axis(i) {
			t.Errorf("ParseAxis(%q) = %v, %v", s, a, err)
		}
	}
	if _, err := ParseAxis("w"); err == nil {
		t.Errorf("ParseAxis(w) should fail")
	}

	if k, err := ParseKind("translation"); err != nil || k != Translation {
		t.Errorf("ParseKind(translation) = %v, %v", k, err)
	}
	if k, err := ParseKind("rot"); err != nil || k != Rotation {
		t.Errorf("ParseKind(rot) = %v, %v", k, err)
	}
	if _, err := ParseKind("scale"); err == nil {
		t.Errorf("ParseKind(scale) should fail")
	}
}

func TestConvert(t *testing.T) {
	if got := convert(180, Degrees, Degrees); got != 180 {
		t.Errorf("convert same unit = %v", got)
	}
	v := 12.345
	if got := convert(convert(v, Degrees, Radians), Radians, Degrees); got-v > 1e-12 || v-got > 1e-12 {
		t.Errorf("convert round trip = %v, want %v", got, v)
	}
	if Degrees.Other() != Radians || Radians.Other() != Degrees {
		t.Errorf("Other() is not symmetric")
	}
}
