package frame

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
)

func TestRollingBufferCapacityInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abc \r\n°9now at")

	for _, capacity := range []int{1, 7, 64, 2048} {
		b := NewRollingBuffer(capacity)
		for i := 0; i < 500; i++ {
			n := rng.Intn(3 * capacity)
			var sb strings.Builder
			for j := 0; j < n; j++ {
				sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
			}
			b.Append(sb.String())
			if b.Len() > capacity {
				t.Fatalf("capacidade %d: tamanho %d após append", capacity, b.Len())
			}
		}
	}
}

func TestRollingBufferKeepsTail(t *testing.T) {
	b := NewRollingBuffer(5)
	dropped := b.Append("abcdefgh")
	if b.String() != "defgh" {
		t.Errorf("conteúdo = %q, esperado cauda %q", b.String(), "defgh")
	}
	if dropped != 3 {
		t.Errorf("descartados = %d, esperado 3", dropped)
	}
}

func TestRollingBufferNormalizesCRLF(t *testing.T) {
	b := NewRollingBuffer(100)
	b.Append("a\r")
	b.Append("\nb\r\nc")
	if b.String() != "a\nb\nc" {
		t.Errorf("conteúdo = %q", b.String())
	}
}

func TestRollingBufferTrimCountsRunes(t *testing.T) {
	b := NewRollingBuffer(100)
	b.Append("x90°°")
	dropped := b.TrimToLast(3)
	if b.String() != "0°°" {
		t.Errorf("conteúdo = %q", b.String())
	}
	if dropped != 2 {
		t.Errorf("descartados = %d bytes, esperado 2", dropped)
	}
	if b.Len() != 3 {
		t.Errorf("Len = %d", b.Len())
	}
}

func TestRollingBufferScan(t *testing.T) {
	b := NewRollingBuffer(100)
	b.Append("x=1 y=22 z=3")
	re := regexp.MustCompile(`=(\d+)`)

	window, got := b.Scan(re, "")
	if len(got) != 3 || window != b.String() {
		t.Fatalf("ocorrências = %d em %q, esperado 3", len(got), window)
	}

	// o bloco pendente entra na varredura mas não no buffer
	window, got = b.Scan(re, "33\r\nw=4")
	if len(got) != 4 {
		t.Fatalf("ocorrências = %d, esperado 4", len(got))
	}
	if s := window[got[2][2]:got[2][3]]; s != "333" {
		t.Errorf("grupo = %q, esperado 333", s)
	}
	if b.String() != "x=1 y=22 z=3" {
		t.Errorf("Scan alterou o buffer: %q", b.String())
	}
}

func TestRollingBufferWindowDoesNotMutate(t *testing.T) {
	b := NewRollingBuffer(4)
	b.Append("abcd")
	if w := b.Window("ef"); w != "abcdef" {
		t.Errorf("Window = %q", w)
	}
	if b.String() != "abcd" {
		t.Errorf("Window alterou o buffer: %q", b.String())
	}
}
