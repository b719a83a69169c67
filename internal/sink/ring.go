// Package sink contém os contêineres de capacidade fixa das visões ao vivo.
// Nenhum deles é seguro para uso concorrente: pertencem ao consumidor do
// despachante.
package sink

// Ring é uma fila circular que descarta o elemento mais antigo ao estourar
type Ring[T any] struct {
	items []T
	head  int
	size  int
}

// NewRing cria um anel com a capacidade informada (mínimo 1)
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push insere v, despejando o mais antigo se necessário.
// Retorna true quando houve despejo.
func (r *Ring[T]) Push(v T) bool {
	idx := (r.head + r.size) % len(r.items)
	r.items[idx] = v
	if r.size < len(r.items) {
		r.size++
		return false
	}
	r.head = (r.head + 1) % len(r.items)
	return true
}

// Len retorna quantos elementos estão retidos
func (r *Ring[T]) Len() int { return r.size }

// Cap retorna a capacidade
func (r *Ring[T]) Cap() int { return len(r.items) }

// At retorna o i-ésimo elemento, do mais antigo (0) ao mais novo
func (r *Ring[T]) At(i int) T {
	return r.items[(r.head+i)%len(r.items)]
}

// Oldest retorna o elemento mais antigo
func (r *Ring[T]) Oldest() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.At(0), true
}

// Newest retorna o elemento mais novo
func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.At(r.size - 1), true
}

// Snapshot copia os elementos em ordem cronológica
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Clear remove todos os elementos
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.size = 0, 0
}
