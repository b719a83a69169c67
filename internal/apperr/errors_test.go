package apperr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
)

type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "i/o timeout" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

type fakeClosed struct{}

func (fakeClosed) Error() string    { return "port closed" }
func (fakeClosed) PortClosed() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"timeout", fakeTimeout{}, Timeout},
		{"timeout embrulhado", fmt.Errorf("read: %w", fakeTimeout{}), Timeout},
		{"porta fechada", fakeClosed{}, ClosedHandle},
		{"arquivo fechado", os.ErrClosed, ClosedHandle},
		{"pipe fechado", io.ErrClosedPipe, ClosedHandle},
		{"prazo excedido", os.ErrDeadlineExceeded, Timeout},
		{"genérico", errors.New("device removed"), IOFailure},
		{"já categorizado", New(Persistence, "x", errors.New("disk full")), Persistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("read", tt.err)
			if KindOf(got) != tt.want {
				t.Errorf("Classify(%v) = %v, esperado %v", tt.err, KindOf(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("causa original perdida em %v", got)
			}
		})
	}

	if Classify("read", nil) != nil {
		t.Error("Classify(nil) deveria ser nil")
	}
}

func TestIsKindAndMessage(t *testing.T) {
	err := Configf("serial.Open", "nenhuma porta selecionada")
	if !IsKind(err, Configuration) {
		t.Fatalf("esperado ConfigurationError, obtido %v", KindOf(err))
	}
	if IsKind(nil, Configuration) {
		t.Error("nil não pertence a nenhuma categoria")
	}
	want := "serial.Open: ConfigurationError: nenhuma porta selecionada"
	if err.Error() != want {
		t.Errorf("mensagem = %q, esperado %q", err.Error(), want)
	}
	if KindOf(errors.New("x")) != Unknown {
		t.Error("erro comum deveria ser Unknown")
	}
}
