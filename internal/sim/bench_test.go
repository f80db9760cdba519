package sim

import (
	"fmt"
	"testing"

	"github.com/san-kum/gravsim/internal/compute"
)

func BenchmarkStepSequential(b *testing.B) {
	for _, n := range []int{256, 1024} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			u := NewSeeded(n, 1)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				u.StepSequential()
			}
		})
	}
}

func BenchmarkStepParallel(b *testing.B) {
	for _, n := range []int{256, 1024} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			u := NewSeeded(n, 1, WithBackend(compute.NewCPU(0)))

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				u.StepParallel()
			}
		})
	}
}
