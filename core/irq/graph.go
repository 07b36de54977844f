package irq

import (
	"io"

	"github.com/bradleyjkemp/memviz"
)

// DumpGraph renders the bus's allocated IRQs and their hook wiring as a
// Graphviz dot file via memviz, which walks an arbitrary Go value graph and
// emits one node per pointer it discovers plus one edge per field that
// points at another node. The spec (§9) calls out that IRQs form a DAG and
// that cycles must never occur; this is the tool used in practice (via
// `dot -Tpng`) to eyeball that a peripheral wiring diagram is in fact
// acyclic before trusting the reentrancy guard to paper over a mistake.
func (b *Bus) DumpGraph(w io.Writer) {
	memviz.Map(w, b)
}
