// Package wordclock seleciona a palavra secreta a partir do relógio.
//
// A seleção é uma função pura do instante: o tempo Unix é dividido em janelas
// de 180 segundos e o índice da janela, módulo o tamanho da lista, escolhe a
// palavra. Não há estado nem erro em tempo de requisição; a única validação
// (lista não vazia) acontece em NewPool, na inicialização.
package wordclock
