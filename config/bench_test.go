package config_test

import (
	"fmt"
	"strings"
	"testing"
)

func serverJSON(tags int) string {
	var b strings.Builder
	b.WriteString(`{"host":"localhost","port":8080,"mode":3,"tags":[`)
	for i := 0; i < tags; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `"t%d"`, i)
	}
	b.WriteString(`],"owner":"ops"}`)
	return b.String()
}

func BenchmarkType_FromJSONString(b *testing.B) {
	st := serverType(b)
	for _, n := range []int{1, 100} {
		doc := serverJSON(n)
		b.Run(fmt.Sprintf("tags=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := st.FromJSONString(doc); err != nil {
					b.Fatalf("load: %v", err)
				}
			}
		})
	}
}

func BenchmarkConfiguration_ToJSONString(b *testing.B) {
	st := serverType(b)
	c, err := st.FromJSONString(serverJSON(100))
	if err != nil {
		b.Fatalf("load: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.ToJSONString(); err != nil {
			b.Fatalf("save: %v", err)
		}
	}
}
