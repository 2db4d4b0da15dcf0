//go:build !windows && !darwin

package moonerr

func classifyPlatform(error) (Code, bool) {
	return "", false
}
