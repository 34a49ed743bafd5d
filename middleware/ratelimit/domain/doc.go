// Package domain define contratos e tipos de domínio para o cooldown por
// cliente, estatísticas e limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
