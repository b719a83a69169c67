package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// invariantDecimal aceita sinal opcional, dígitos e parte fracionária opcional.
// Ponto é sempre o separador decimal; separador de milhar não é aceito.
var invariantDecimal = regexp.MustCompile(`^[+-]?[0-9]+(?:\.[0-9]+)?$`)

// ParseInvariant converte um decimal no formato invariante para float64
func ParseInvariant(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !invariantDecimal.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatInvariant formata um float com o menor número de dígitos que o
// representa exatamente, sempre com ponto decimal (3.45, 270, -0.5)
func FormatInvariant(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptional formata um valor opcional; vazio quando ausente
func FormatOptional(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return FormatInvariant(v)
}
