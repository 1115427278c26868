package store

import "strconv"

// Project codes are stringified positive integers; "0" sorts before any
// real code and is what an unparsable code degrades to.
func numericCode(code string) int {
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}

func formatCode(n int) string {
	return strconv.Itoa(n)
}
