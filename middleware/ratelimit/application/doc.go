// Package application contém os casos de uso do cooldown por cliente e do
// limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key, at) retorna uma Decision (allow/deny + retry-after).
package application
