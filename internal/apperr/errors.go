// Package apperr define as categorias de erro do pipeline de telemetria.
//
// Cada erro carrega um Kind, a operação onde ocorreu e a causa original.
// Os canais seriais convertem erros do driver em Kind no limite do callback
// de leitura, de forma que o consumidor recebe sempre uma categoria estável.
package apperr

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Kind representa a categoria de um erro
type Kind int

const (
	// Unknown erro sem categoria definida
	Unknown Kind = iota
	// Timeout leitura/escrita expirou; transitório
	Timeout
	// IOFailure falha de E/S (dispositivo removido); canal vai para Errored
	IOFailure
	// ClosedHandle operação em porta já fechada durante o encerramento; benigno
	ClosedHandle
	// MalformedFrame linha recebida fora da gramática; nunca persistida
	MalformedFrame
	// Configuration configuração inválida, rejeitada antes de qualquer E/S
	Configuration
	// Persistence falha ao gravar/descarregar o log CSV
	Persistence
)

// String retorna o nome da categoria
func (k Kind) String() string {
	switch k {
	case Timeout:
		return "Timeout"
	case IOFailure:
		return "IOFailure"
	case ClosedHandle:
		return "OperationOnClosedHandle"
	case MalformedFrame:
		return "MalformedFrame"
	case Configuration:
		return "ConfigurationError"
	case Persistence:
		return "PersistenceFailure"
	}
	return "Unknown"
}

// Error é um erro categorizado
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return e.Kind.String()
}

// Unwrap permite errors.Is/As na causa original
func (e *Error) Unwrap() error {
	return e.Err
}

// New cria um erro categorizado
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configf cria um ConfigurationError com mensagem formatada
func Configf(op, format string, args ...interface{}) *Error {
	return &Error{Kind: Configuration, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf retorna a categoria do erro (Unknown se não categorizado)
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind verifica se o erro pertence à categoria
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// timeouter é implementado por erros de rede/arquivo com prazo
type timeouter interface {
	Timeout() bool
}

// closedCoder é implementado por erros de driver que expõem um código
// de "porta fechada" (ver internal/serial)
type closedCoder interface {
	PortClosed() bool
}

// Classify converte um erro de driver em erro categorizado.
// Erros já categorizados são devolvidos como estão.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var to timeouter
	if errors.As(err, &to) && to.Timeout() {
		return New(Timeout, op, err)
	}

	var cc closedCoder
	if errors.As(err, &cc) && cc.PortClosed() {
		return New(ClosedHandle, op, err)
	}

	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return New(ClosedHandle, op, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return New(Timeout, op, err)
	}

	return New(IOFailure, op, err)
}
