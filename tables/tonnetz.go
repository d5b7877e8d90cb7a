package tables

// The Tonnetz links each pitch class to its neighbours a fifth, a minor third
// and a major third away.
var tonnetzSteps = []int{7, 3, 4}

func tonnetzDistances() [12][12]int {
	var dist [12][12]int
	for src := 0; src < 12; src++ {
		for i := range dist[src] {
			dist[src][i] = -1
		}
		dist[src][src] = 0
		queue := []int{src}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, s := range tonnetzSteps {
				for _, next := range []int{(cur + s) % 12, (cur - s + 12) % 12} {
					if dist[src][next] < 0 {
						dist[src][next] = dist[src][cur] + 1
						queue = append(queue, next)
					}
				}
			}
		}
	}
	return dist
}

// tonnetzPathLengths finds, for every set, the cheapest ordering of its
// pitch classes where each step costs the graph distance between them.
func tonnetzPathLengths() [NumPCS]uint64 {
	const inf = 1 << 30
	dist := tonnetzDistances()

	// best[mask][last] is the cheapest path covering mask and ending at last
	best := make([][12]int, NumPCS)
	for mask := range best {
		for last := range best[mask] {
			best[mask][last] = inf
		}
	}
	for pc := 0; pc < 12; pc++ {
		best[1<<pc][pc] = 0
	}
	for mask := 1; mask < NumPCS; mask++ {
		for last := 0; last < 12; last++ {
			cost := best[mask][last]
			if cost == inf {
				continue
			}
			for next := 0; next < 12; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				grown := mask | 1<<next
				if c := cost + dist[last][next]; c < best[grown][next] {
					best[grown][next] = c
				}
			}
		}
	}

	var res [NumPCS]uint64
	for mask := 1; mask < NumPCS; mask++ {
		shortest := inf
		for _, c := range best[mask] {
			if c < shortest {
				shortest = c
			}
		}
		res[mask] = uint64(shortest)
	}
	return res
}
