package strategy

import "golang.org/x/exp/constraints"

func Sum[S ~[]T, T constraints.Integer](s S) T {
	var total T
	for _, v := range s {
		total += v
	}
	return total
}
