package worker

// TotalAttentionPoints is the number of duties a ServerThread rotates
// through each release: drain sales, expire histories, replace
// customers, replace products.
const TotalAttentionPoints = 4

// attentionCounter decrements then wraps: `if (attention-- == 0) attention =
// TotalAttentionPoints - 1;`. That wrap check fires a cycle late, so the
// rotation isn't a clean 0→1→2→3→0 sweep — starting from value 0, next()
// returns 3, 2, 1, 0, 3, 2, 1, 0, ... Left as-is rather than "fixed" since
// every attention point still gets serviced once per four releases, just
// offset by one; see attention_test.go for the pinned sequence.
type attentionCounter struct {
	value int
}

// next advances the counter by one release and returns the attention
// point to service this cycle.
func (a *attentionCounter) next() int {
	old := a.value
	a.value--
	if old == 0 {
		a.value = TotalAttentionPoints - 1
	}
	return a.value
}
