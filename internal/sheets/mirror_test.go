package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpreadsheetURLFor(t *testing.T) {
	url := SpreadsheetURLFor("1AbCdEf")
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/1AbCdEf", url)
}

func TestClientCache(t *testing.T) {
	c := &Client{cache: map[string]string{}}
	c.remember("a@x.com", "sheet-1")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, "sheet-1", c.cache["a@x.com"])
}
