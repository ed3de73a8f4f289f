package common

import "strings"

type PPLevel int8

const (
	PPL0 PPLevel = iota
	PPL1
	PPL2
)

func RepeatStr(str string, times int) string {
	var w strings.Builder
	for i := 0; i < times; i++ {
		w.WriteString(str)
	}
	return w.String()
}

func CompareUint64(left, right uint64) int {
	if left > right {
		return 1
	} else if left < right {
		return -1
	}
	return 0
}

func MinUint64(left, right uint64) uint64 {
	if left < right {
		return left
	}
	return right
}

func MaxUint64(left, right uint64) uint64 {
	if left > right {
		return left
	}
	return right
}
