package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressHasStreet(t *testing.T) {
	var nilAddr *Address
	assert.False(t, nilAddr.HasStreet())
	assert.False(t, (&Address{Street: "   "}).HasStreet())
	assert.True(t, (&Address{Street: "1 Main St"}).HasStreet())
}

func TestAddressLines(t *testing.T) {
	addr := Address{Street: " 1 Main St ", City: "Springfield", Zipcode: "12345", Country: "US"}
	assert.Equal(t, []string{"1 Main St", "Springfield, 12345", "US"}, addr.Lines())
	assert.Equal(t, []string{"1 Main St"}, Address{Street: "1 Main St"}.Lines())
}

func TestAddressNormalized(t *testing.T) {
	addr := Address{Street: " 1 Main St ", City: " Town "}.Normalized()
	assert.Equal(t, "1 Main St", addr.Street)
	assert.Equal(t, "Town", addr.City)
}
