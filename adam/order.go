// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adam

import "math/rand/v2"

// visitOrder maps the position within an epoch to a term index.
// Without a random source the order is the identity and no permutation is kept.
type visitOrder struct {
	idx []int
	rnd *rand.Rand
}

func newVisitOrder(n int, rnd *rand.Rand) *visitOrder {
	o := &visitOrder{rnd: rnd}
	if rnd == nil {
		return o
	}
	o.idx = make([]int, n)
	for i := range o.idx {
		o.idx[i] = i
	}
	o.shuffle()
	return o
}

// shuffle permutes the current order in place.
func (o *visitOrder) shuffle() {
	if o.idx == nil {
		return
	}
	o.rnd.Shuffle(len(o.idx), func(i, j int) {
		o.idx[i], o.idx[j] = o.idx[j], o.idx[i]
	})
}

func (o *visitOrder) at(pos int) int {
	if o.idx == nil {
		return pos
	}
	return o.idx[pos]
}
