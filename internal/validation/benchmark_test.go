package validation

import (
	"strings"
	"testing"
)

// BenchmarkCheckV4 measures dotted-quad validation throughput.
func BenchmarkCheckV4(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = CheckV4("192.168.100.254")
	}
}

// BenchmarkCheckV6 measures compressed IPv6 validation throughput.
func BenchmarkCheckV6(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = CheckV6("2001:db8::ff00:42:8329")
	}
}

// BenchmarkCheckV6Pathological feeds a long colon/hex run; the scan stays linear.
func BenchmarkCheckV6Pathological(b *testing.B) {
	input := strings.Repeat("a:", 50000) + "::"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = CheckV6(input)
	}
}

// BenchmarkCheckPath measures path validation throughput.
func BenchmarkCheckPath(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = CheckPath("/search/results%20page?q=go&page=2")
	}
}
