package pagination

const (
	// DefaultLimit is the number of posts on one feed page
	DefaultLimit = 40

	// MaxLimit is the largest number of posts a single range read returns
	MaxLimit = 1000
)
