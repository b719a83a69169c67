// Package recorder grava as amostras de vento do canal A num CSV
// somente-acréscimo.
package recorder

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"telemetria_go/internal/apperr"
	"telemetria_go/internal/models"
	"telemetria_go/pkg/utils"
)

// Header é a linha de cabeçalho escrita em arquivos novos ou vazios
var Header = []string{"timestamp_iso", "wind_speed", "wind_direction", "motor_angle_deg"}

// ErrClosed é retornado por Record depois de Close
var ErrClosed = errors.New("gravador fechado")

// Options configura a abertura do arquivo
type Options struct {
	// Fsync força fsync após cada linha
	Fsync bool
}

// Recorder é um arquivo CSV aberto em modo de acréscimo
type Recorder struct {
	mu            sync.Mutex
	path          string
	file          *os.File
	buf           *bufio.Writer
	csv           *csv.Writer
	headerPending bool
	fsync         bool
	session       string
	rows          int64
	closed        bool
}

// DefaultPath retorna <dir>/<prefix>_<aaaa-mm-dd>.csv para a data informada
func DefaultPath(dir, prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "wind"
	}
	return utils.DatedFileName(dir, prefix, ".csv", t)
}

// Open abre (ou cria) path em modo de acréscimo. O cabeçalho fica pendente
// somente se o arquivo não existia ou estava vazio.
func Open(path string, opts Options) (*Recorder, error) {
	const op = "recorder.Open"

	if path == "" {
		return nil, apperr.Configf(op, "caminho do CSV vazio")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperr.New(apperr.Persistence, op, err)
		}
	}

	headerPending := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		headerPending = false
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, apperr.New(apperr.Persistence, op, err)
	}

	buf := bufio.NewWriter(f)
	return &Recorder{
		path:          path,
		file:          f,
		buf:           buf,
		csv:           csv.NewWriter(buf),
		headerPending: headerPending,
		fsync:         opts.Fsync,
		session:       uuid.New().String(),
	}, nil
}

// Record escreve uma linha e descarrega imediatamente. O ângulo vazio indica
// "desconhecido".
func (r *Recorder) Record(sample models.WindSample, angle float64, angleKnown bool) error {
	const op = "recorder.Record"

	row := []string{
		utils.FormatSortable(sample.Timestamp),
		utils.FormatInvariant(sample.Speed),
		utils.FormatInvariant(sample.Direction),
		utils.FormatOptional(angle, angleKnown),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return apperr.New(apperr.ClosedHandle, op, ErrClosed)
	}

	if r.headerPending {
		if err := r.csv.Write(Header); err != nil {
			return apperr.New(apperr.Persistence, op, err)
		}
		r.headerPending = false
	}

	if err := r.csv.Write(row); err != nil {
		return apperr.New(apperr.Persistence, op, err)
	}
	if err := r.flushLocked(); err != nil {
		return apperr.New(apperr.Persistence, op, err)
	}

	r.rows++
	return nil
}

func (r *Recorder) flushLocked() error {
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		return err
	}
	if err := r.buf.Flush(); err != nil {
		return err
	}
	if r.fsync {
		return r.file.Sync()
	}
	return nil
}

// Close descarrega e fecha o arquivo. Chamadas repetidas não fazem nada.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	flushErr := r.flushLocked()
	closeErr := r.file.Close()
	if flushErr != nil {
		return apperr.New(apperr.Persistence, "recorder.Close", flushErr)
	}
	if closeErr != nil {
		return apperr.New(apperr.Persistence, "recorder.Close", closeErr)
	}
	return nil
}

// Path retorna o caminho do arquivo
func (r *Recorder) Path() string {
	return r.path
}

// Session identifica esta abertura do arquivo nos logs
func (r *Recorder) Session() string {
	return r.session
}

// Rows retorna quantas linhas de dados foram gravadas nesta sessão
func (r *Recorder) Rows() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// String descreve o gravador para logs
func (r *Recorder) String() string {
	return fmt.Sprintf("%s (sessão %s)", r.path, r.session)
}
