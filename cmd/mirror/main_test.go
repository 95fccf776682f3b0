package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCSVTrimsAndDropsEmpty(t *testing.T) {
	got := splitCSV(" 1.20.1 , 1.19.4,, 1.18.2 ")
	assert.Equal(t, []string{"1.20.1", "1.19.4", "1.18.2"}, got)
}

func TestSplitCSVEmptyInput(t *testing.T) {
	assert.Nil(t, splitCSV(""))
}

func TestLoadConfigEmptyPathReturnsEmptyStore(t *testing.T) {
	cfg, err := loadConfig("")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
}
