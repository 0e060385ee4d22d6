package scanner

// SelfNames exposes selfNames for testing.
func SelfNames(path string) map[string]struct{} {
	return selfNames(path)
}
