package wordclock

import "time"

// Interval é a largura de cada janela de tempo em que a palavra não muda.
const Interval = 180 * time.Second

const intervalSeconds = int64(Interval / time.Second)

// Selection é o resultado de uma seleção para um instante.
type Selection struct {
	Word string
	// Time é o instante amostrado, truncado para segundos.
	Time          time.Time
	IntervalIndex int64
	WordIndex     int
	NextChange    time.Time
	// Remaining fica sempre em [1s, 180s].
	Remaining time.Duration
}

// Select escolhe a palavra da janela que contém t.
func (p Pool) Select(t time.Time) Selection {
	unix := t.Unix()
	bucket := floorDiv(unix, intervalSeconds)
	idx := floorMod(bucket, int64(len(p.words)))
	next := (bucket + 1) * intervalSeconds

	return Selection{
		Word:          p.words[idx],
		Time:          time.Unix(unix, 0).In(t.Location()),
		IntervalIndex: bucket,
		WordIndex:     int(idx),
		NextChange:    time.Unix(next, 0).In(t.Location()),
		Remaining:     time.Duration(next-unix) * time.Second,
	}
}

// divisão com arredondamento para baixo (também para negativos)
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
