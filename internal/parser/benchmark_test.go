package parser

import (
	"fmt"
	"testing"
)

// BenchmarkFieldsParser measures plain "<path> <address>" parsing throughput.
func BenchmarkFieldsParser(b *testing.B) {
	p := NewFieldsParser()
	line := "/help_page/1 126.218.035.038"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(line, "bench.log")
	}
}

// BenchmarkCLFParser measures CLF log parsing throughput.
func BenchmarkCLFParser(b *testing.B) {
	p := NewCLFParser()
	line := `127.0.0.1 - frank [17/Feb/2026:12:00:00 +0000] "GET /api/health HTTP/1.1" 500 1234`

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(line, "bench.log")
	}
}

// BenchmarkJSONParser measures JSON log parsing throughput.
func BenchmarkJSONParser(b *testing.B) {
	p := NewJSONParser()
	line := `{"path":"/about","address":"5.6.7.8","status":200,"request_id":"abc-123"}`

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(line, "bench.log")
	}
}

// BenchmarkAutoParser measures sustained lines/sec over a mixed batch.
func BenchmarkAutoParser(b *testing.B) {
	p := NewAutoParser()

	lines := make([]string, 1000)
	for i := range lines {
		switch i % 3 {
		case 0:
			lines[i] = fmt.Sprintf(`{"path":"/page/%d","ip":"10.0.0.%d"}`, i, i%255)
		case 1:
			lines[i] = fmt.Sprintf(`10.0.0.%d - - [17/Feb/2026:12:00:00 +0000] "GET /page/%d HTTP/1.1" 200 5678`, i%255, i)
		case 2:
			lines[i] = fmt.Sprintf("/page/%d 10.0.0.%d", i, i%255)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(lines[i%1000], "bench.log")
	}
}
