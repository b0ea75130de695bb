package ioutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestReadLimited(t *testing.T) {
	assert.Equal(t, "hello", ReadLimited(strings.NewReader("hello"), 100))
	assert.Equal(t, "hel", ReadLimited(strings.NewReader("hello"), 3))
	assert.Equal(t, "", ReadLimited(strings.NewReader(""), 100))
	assert.Contains(t, ReadLimited(failingReader{}, 100), "unreadable")
}
