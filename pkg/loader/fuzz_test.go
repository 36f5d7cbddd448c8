package loader_test

import (
	"bytes"
	"testing"

	"github.com/vanderheijden86/commitspread/pkg/loader"
)

// FuzzParseRecords checks that no input panics the parser and that every
// accepted record is usable downstream.
//
// Run with: go test -fuzz=FuzzParseRecords -fuzztime=1m ./pkg/loader/...
func FuzzParseRecords(f *testing.F) {
	seeds := []string{
		sample,
		"",
		"[]",
		"null",
		"42",
		`[null]`,
		`[{"date":"d","commits_by_topics":null,"total_count":0}]`,
		`[{"date":"d","commits_by_topics":{"a":-5},"total_count":-1}]`,
		`[{"date":"d","commits_by_topics":{"a":1.5},"total_count":1}]`,
		`[{"date":"d","commits_by_topics":{"a":1,"a":2},"total_count":3}]`,
		`{"date":"d","commits_by_topics":{"日本語":1},"total_count":1}`,
		"\xef\xbb\xbf[]",
		"\x00\x01\x02",
		`[{"date":"d"`,
		`{"date":"a"}{"date":"b"}`,
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		res, err := loader.ParseRecordsWithOptions(bytes.NewReader(data), loader.ParseOptions{
			WarningHandler: func(string) {},
		})
		if err != nil {
			return
		}
		for _, r := range res.Records {
			if r.Date == "" {
				t.Fatalf("accepted record without date: %+v", r)
			}
			for _, tc := range r.Counts {
				if tc.Count < 0 {
					t.Fatalf("negative count survived: %+v", r)
				}
			}
		}
	})
}
