package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStoreType(t *testing.T) {
	assert.NoError(t, validateStoreType("postgres"))
	assert.Error(t, validateStoreType("memory"))
	assert.Error(t, validateStoreType(""))
	assert.Error(t, validateStoreType("sqlite"))
}
