package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommaify(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in   string
		want string
	}{
		"short value unchanged":    {in: "999", want: "999"},
		"four digits":              {in: "1000", want: "1,000"},
		"six digits":               {in: "123456", want: "123,456"},
		"seven digits":             {in: "1234567", want: "1,234,567"},
		"decimal point skipped":    {in: "1234.56", want: "1234.56"},
		"negative sign grouped":    {in: "-1234", want: "-1,234"},
		"empty string":             {in: "", want: ""},
		"bare sign groups oddly":   {in: "-123", want: "-,123"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Commaify(tc.in))
		})
	}
}
