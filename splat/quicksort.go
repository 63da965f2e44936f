package splat

// Pivot selects how quickSort picks its partition value.
type Pivot int

const (
	// PivotMiddle uses the depth of the middle element. It reproduces the
	// reference ordering of equal depths but degrades to quadratic time on
	// adversarial input.
	PivotMiddle Pivot = iota

	// PivotMedianOfThree uses the median depth of the first, middle and last
	// elements.
	PivotMedianOfThree
)

// quickSort sorts order[left:right+1] by descending depth[order[i]] with a
// Hoare partition. Only order is mutated.
func quickSort(order []uint32, depth []float32, left, right int, pivot Pivot) {
	for left < right {
		i, j := left, right
		p := pivotValue(order, depth, left, right, pivot)

		for i <= j {
			for depth[order[i]] > p {
				i++
			}
			for depth[order[j]] < p {
				j--
			}
			if i <= j {
				order[i], order[j] = order[j], order[i]
				i++
				j--
			}
		}

		// Recurse into the smaller side and loop over the larger one to keep
		// the stack logarithmic.
		if j-left < right-i {
			if left < j {
				quickSort(order, depth, left, j, pivot)
			}
			left = i
		} else {
			if i < right {
				quickSort(order, depth, i, right, pivot)
			}
			right = j
		}
	}
}

func pivotValue(order []uint32, depth []float32, left, right int, pivot Pivot) float32 {
	mid := int(uint(left+right) >> 1)
	if pivot != PivotMedianOfThree {
		return depth[order[mid]]
	}

	a := depth[order[left]]
	b := depth[order[mid]]
	c := depth[order[right]]
	switch {
	case (a <= b && b <= c) || (c <= b && b <= a):
		return b
	case (b <= a && a <= c) || (c <= a && a <= b):
		return a
	default:
		return c
	}
}
