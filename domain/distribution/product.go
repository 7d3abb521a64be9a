package distribution

import "github.com/felixgeelhaar/decpomdp-go/domain/vector"

// Product returns the joint distribution of independent per-slot
// distributions. The joint support is ordered with the last slot varying
// fastest. It panics when called without parts.
func Product[T vector.Symbol](parts ...*Distribution[T]) *Distribution[vector.Vector[T]] {
	if len(parts) == 0 {
		panic("distribution: Product called with no parts")
	}

	type partial struct {
		elems []T
		mass  float64
	}
	acc := []partial{{mass: 1}}
	for _, p := range parts {
		next := make([]partial, 0, len(acc)*p.Len())
		for _, a := range acc {
			for _, k := range p.keys {
				elems := make([]T, len(a.elems), len(a.elems)+1)
				copy(elems, a.elems)
				next = append(next, partial{elems: append(elems, k), mass: a.mass * p.mass[k]})
			}
		}
		acc = next
	}

	d := &Distribution[vector.Vector[T]]{
		keys: make([]vector.Vector[T], 0, len(acc)),
		mass: make(map[vector.Vector[T]]float64, len(acc)),
	}
	for _, a := range acc {
		if a.mass == 0 {
			continue
		}
		v := vector.Of(a.elems...)
		if _, ok := d.mass[v]; !ok {
			d.keys = append(d.keys, v)
		}
		d.mass[v] += a.mass
	}
	d.scale(1 / d.total())
	return d
}
