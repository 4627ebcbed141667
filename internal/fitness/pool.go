package fitness

import (
	"fmt"

	"gocv.io/x/gocv"
)

// OraclePool fans Recognize calls out over a fixed set of oracles, each
// held by at most one caller at a time. A single Tesseract handle cannot
// take interleaved SetImage/Text calls, so concurrent evaluation workers
// must each get their own handle for the duration of one recognition.
//
// The pool itself implements Oracle and is safe for concurrent use.
type OraclePool struct {
	oracles chan Oracle
}

// NewOraclePool builds a pool over the given oracles. Size the pool to the
// evaluation worker count so no worker ever blocks on a free handle.
func NewOraclePool(oracles ...Oracle) (*OraclePool, error) {
	if len(oracles) == 0 {
		return nil, fmt.Errorf("oracle pool: need at least one oracle")
	}
	ch := make(chan Oracle, len(oracles))
	for _, o := range oracles {
		ch <- o
	}
	return &OraclePool{oracles: ch}, nil
}

// Recognize borrows an oracle for the whole set-image/read-text cycle and
// returns it afterwards.
func (p *OraclePool) Recognize(img gocv.Mat) (string, error) {
	o := <-p.oracles
	defer func() { p.oracles <- o }()
	return o.Recognize(img)
}
