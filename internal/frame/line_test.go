package frame

import (
	"reflect"
	"testing"
)

func TestLineAssemblerChunks(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    []string
		pending int
	}{
		{"linha única", []string{" ,3.45,270\n"}, []string{" ,3.45,270"}, 0},
		{"crlf", []string{",1,2\r\n"}, []string{",1,2"}, 0},
		{"espaços finais", []string{",1,2  \r\n"}, []string{",1,2"}, 0},
		{"dividida", []string{",1", ".5,", "90\n"}, []string{",1.5,90"}, 0},
		{"várias num bloco", []string{",1,2\n,3,4\n,5"}, []string{",1,2", ",3,4"}, 2},
		{"cr separado do lf", []string{",1,2\r", "\n"}, []string{",1,2"}, 0},
		{"linha vazia", []string{"\n"}, []string{""}, 0},
		{"sem terminador", []string{"abc"}, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLineAssembler()
			var got []string
			for _, c := range tt.chunks {
				got = append(got, a.Push([]byte(c))...)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("linhas = %q, esperado %q", got, tt.want)
			}
			if a.Pending() != tt.pending {
				t.Errorf("pendente = %d, esperado %d", a.Pending(), tt.pending)
			}
		})
	}
}

func TestLineAssemblerReset(t *testing.T) {
	a := NewLineAssembler()
	a.Push([]byte("parcial"))
	a.Reset()
	got := a.Push([]byte(",1,2\n"))
	if len(got) != 1 || got[0] != ",1,2" {
		t.Errorf("após Reset = %q", got)
	}
}
