package compute

type Backend interface {
	Name() string
	Workers() int
	// Partition reports how For splits [0, n): the number of chunks and the
	// length of every chunk except possibly the last.
	Partition(n int) (chunks, size int)
	For(n int, fn func(start, end int))
}

// ByName returns the backend for a CLI mode string.
func ByName(name string, workers int) (Backend, bool) {
	switch name {
	case "seq", "serial", "sequential":
		return NewSerial(), true
	case "par", "parallel", "cpu":
		return NewCPU(workers), true
	}
	return nil, false
}

type Serial struct{}

func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Name() string { return "serial" }
func (s *Serial) Workers() int { return 1 }

func (s *Serial) Partition(n int) (int, int) {
	if n <= 0 {
		return 0, 0
	}
	return 1, n
}

func (s *Serial) For(n int, fn func(start, end int)) {
	if n > 0 {
		fn(0, n)
	}
}
