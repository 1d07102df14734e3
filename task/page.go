package task

// Cycle moves page by delta over n pages, wrapping in both directions.
func Cycle(page, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((page+delta)%n + n) % n
}
