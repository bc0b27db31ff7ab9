package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "iso passthrough", in: "1990-05-12", want: "1990-05-12"},
		{name: "iso single digit", in: "1990-5-2", want: "1990-05-02"},
		{name: "year first slashes", in: "1990/05/12", want: "1990-05-12"},
		{name: "day first slashes", in: "12/05/1990", want: "1990-05-12"},
		{name: "day first dashes", in: "12-05-1990", want: "1990-05-12"},
		{name: "day first single digits", in: "2/1/1990", want: "1990-01-02"},
		{name: "month first when day is impossible", in: "05/25/1990", want: "1990-05-25"},
		{name: "month name short", in: "May 12, 1990", want: "1990-05-12"},
		{name: "month name long", in: "January 2 1990", want: "1990-01-02"},
		{name: "month name day first", in: "12 May 1990", want: "1990-05-12"},
		{name: "month name upper case", in: "MAY 12 1990", want: "1990-05-12"},
		{name: "month name with period", in: "Sep. 4, 2001", want: "2001-09-04"},
		{name: "surrounding whitespace", in: "  12/05/1990  ", want: "1990-05-12"},
		{name: "impossible date kept verbatim", in: "31/02/1990", want: "31/02/1990"},
		{name: "garbage kept verbatim", in: "someday soon", want: "someday soon"},
		{name: "empty stays empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}
