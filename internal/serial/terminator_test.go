package serial

import "testing"

func TestParseTerminator(t *testing.T) {
	tests := []struct {
		in     string
		want   Terminator
		suffix string
		note   string
	}{
		{"None", TermNone, "", ""},
		{"", TermNone, "", ""},
		{`\n`, TermLF, "\n", ` (\n)`},
		{"CR", TermCR, "\r", ` (\r)`},
		{`\r\n`, TermCRLF, "\r\n", ` (\r\n)`},
		{"crlf", TermCRLF, "\r\n", ` (\r\n)`},
	}
	for _, tt := range tests {
		got, err := ParseTerminator(tt.in)
		if err != nil {
			t.Errorf("ParseTerminator(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want || got.Suffix() != tt.suffix || got.Note() != tt.note {
			t.Errorf("ParseTerminator(%q) = %v (%q, %q)", tt.in, got, got.Suffix(), got.Note())
		}
	}

	if _, err := ParseTerminator("tab"); err == nil {
		t.Error("terminador desconhecido deveria falhar")
	}
}
