package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHash(t *testing.T) {
	h := NewHash([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h.String())
	assert.Equal(t, "ba7816bf", h.Short(8))
	assert.Equal(t, h.String(), h.Short(100))
}

func TestSchemaHash_OrderMatters(t *testing.T) {
	a := SchemaHash("CREATE TABLE a", "CREATE TABLE b")
	assert.Equal(t, a, SchemaHash("CREATE TABLE a", "CREATE TABLE b"))
	assert.NotEqual(t, a, SchemaHash("CREATE TABLE b", "CREATE TABLE a"))
}
