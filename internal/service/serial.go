package service

import "sort"

// NextSerialNumber 返回未被占用的最小正整数
// used 可无序、可含重复
func NextSerialNumber(used []int) int {
	sorted := append([]int(nil), used...)
	sort.Ints(sorted)

	next := 1
	for _, n := range sorted {
		if n < next {
			continue
		}
		if n > next {
			break
		}
		next++
	}
	return next
}
