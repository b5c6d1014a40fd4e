package handler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation())
}
