package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldSearchTerm(t *testing.T) {
	cases := map[string]string{
		"García":         "garcia",
		"  Ramírez ":     "ramirez",
		"NEUMONÍA":       "neumonia",
		"jeringa":        "jeringa",
		"Niño Pérez":     "nino perez",
		"":               "",
		"Ceftriaxona 1g": "ceftriaxona 1g",
	}
	for in, want := range cases {
		require.Equal(t, want, FoldSearchTerm(in), "input %q", in)
	}
}
