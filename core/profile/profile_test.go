package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Valid(t *testing.T) {
	tests := []struct {
		typ  Type
		want bool
	}{
		{typ: Student, want: true},
		{typ: Teacher, want: true},
		{typ: School, want: true},
		{typ: "admin"},
		{typ: ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Valid())
		})
	}
}
