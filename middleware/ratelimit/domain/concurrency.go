package domain

import "context"

// SlotPool limita quantas requisições são atendidas ao mesmo tempo.
//
// Acquire bloqueia até haver vaga ou até o ctx encerrar. O release retornado
// deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	Cap() int
	InUse() int
}
