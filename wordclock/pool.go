package wordclock

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrEmptyPool é retornado quando a lista de palavras está vazia.
var ErrEmptyPool = errors.New("wordclock: word pool is empty")

// Pool é a lista ordenada e imutável de palavras candidatas.
// A ordem define o mapeamento intervalo -> palavra.
type Pool struct {
	words []string
}

var defaultWords = []string{
	"güvenlik", "sistem", "kapı", "giriş", "çıkış",
	"hoşgeldin", "merhaba", "teşekkür", "lütfen", "tamam",
	"başla", "bitir", "devam", "dur", "bekle",
	"açık", "kapalı", "yeşil", "kırmızı", "mavi",
	"bir", "iki", "üç", "dört", "beş",
	"altı", "yedi", "sekiz", "dokuz", "on",
	"güzel", "harika", "mükemmel", "başarılı", "doğru",
	"ev", "ofis", "masa", "sandalye", "pencere",
	"telefon", "bilgisayar", "tablet", "kamera", "mikrofon",
	"kitap", "kalem", "kağıt", "dosya", "klasör",
	"su", "çay", "kahve", "ekmek", "peynir",
	"sabah", "öğle", "akşam", "gece", "gün",
	"pazartesi", "salı", "çarşamba", "perşembe", "cuma",
	"ocak", "şubat", "mart", "nisan", "mayıs",
	"haziran", "temmuz", "ağustos", "eylül", "ekim",
}

// NewPool copia a lista recebida. Falha se ela estiver vazia ou contiver
// apenas palavras em branco.
func NewPool(words []string) (Pool, error) {
	out := make([]string, 0, len(words))
	for i, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			return Pool{}, errors.Errorf("wordclock: blank word at index %d", i)
		}
		out = append(out, w)
	}
	if len(out) == 0 {
		return Pool{}, ErrEmptyPool
	}
	return Pool{words: out}, nil
}

// DefaultPool retorna a lista embutida (75 palavras).
func DefaultPool() Pool {
	p, err := NewPool(defaultWords)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pool) Len() int { return len(p.words) }

func (p Pool) Word(i int) string { return p.words[i] }

// Words retorna uma cópia da lista.
func (p Pool) Words() []string {
	out := make([]string, len(p.words))
	copy(out, p.words)
	return out
}
