package utils

import (
	"fmt"
	"path/filepath"
	"time"
)

// SortableLayout é o formato ISO-8601 ordenável usado no CSV (sem fração nem fuso)
const SortableLayout = "2006-01-02T15:04:05"

// FormatSortable formata um time.Time como ISO-8601 ordenável
func FormatSortable(t time.Time) string {
	return t.Format(SortableLayout)
}

// FormatDuration formata uma duração para exibição amigável
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour

	m := d / time.Minute
	d -= m * time.Minute

	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// DatedFileName monta o nome padrão de um arquivo diário: <prefixo>_<aaaa-mm-dd><ext>
func DatedFileName(dir, prefix, ext string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, t.Format("2006-01-02"), ext))
}

// UnixMillis retorna o timestamp em milissegundos
func UnixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FromUnixMillis converte milissegundos em time.Time
func FromUnixMillis(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond))
}
