package wind

import (
	"testing"
	"time"

	"telemetria_go/internal/apperr"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line      string
		speed     float64
		direction float64
		ok        bool
	}{
		{" ,3.45,270", 3.45, 270, true},
		{",0,0", 0, 0, true},
		{"  ,  12.5 ,  -3  ", 12.5, -3, true},
		{"\t,+1.0,\t359.9", 1, 359.9, true},
		{",-0.25,+180", -0.25, 180, true},
		{"hello", 0, 0, false},
		{"", 0, 0, false},
		{"x,3.45,270", 0, 0, false},
		{",3,45,270", 0, 0, false},
		{",3.45", 0, 0, false},
		{",3.45,", 0, 0, false},
		{",1e3,10", 0, 0, false},
		{",.5,10", 0, 0, false},
		{",5.,10", 0, 0, false},
		{",1,234.5,6", 0, 0, false},
		{",NaN,1", 0, 0, false},
	}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		sample, err := ParseLine(tt.line, ts)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseLine(%q) erro inesperado: %v", tt.line, err)
				continue
			}
			if sample.Speed != tt.speed || sample.Direction != tt.direction {
				t.Errorf("ParseLine(%q) = %v/%v, esperado %v/%v",
					tt.line, sample.Speed, sample.Direction, tt.speed, tt.direction)
			}
			if !sample.Timestamp.Equal(ts) {
				t.Errorf("timestamp = %v", sample.Timestamp)
			}
			continue
		}
		if err == nil {
			t.Errorf("ParseLine(%q) deveria falhar", tt.line)
			continue
		}
		if !apperr.IsKind(err, apperr.MalformedFrame) {
			t.Errorf("ParseLine(%q) tipo de erro = %v", tt.line, apperr.KindOf(err))
		}
	}
}
