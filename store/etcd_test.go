package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEtcdStoreValidation(t *testing.T) {
	_, err := NewEtcdStore(EtcdOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints")
}

func TestEtcdStoreKeys(t *testing.T) {
	s := &EtcdStore{namespace: "plugbot"}

	assert.Equal(t, "plugbot/instance/echo", s.recordKey("echo"))
	assert.Equal(t, "plugbot/instance/", s.recordPrefix())
	assert.Equal(t, "plugbot/plugin/echo/", s.namespacePrefix("echo"))
}
