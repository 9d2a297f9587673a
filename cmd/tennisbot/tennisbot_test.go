package main

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownSignalHaltsMotorsBeforeExit(t *testing.T) {
	var calls []string
	h := &signalHandler{
		cancel:      func() { calls = append(calls, "cancel") },
		halt:        func() { calls = append(calls, "halt") },
		savePicture: func() { calls = append(calls, "picture") },
		exit:        func(code int) { calls = append(calls, "exit") },
	}

	h.handle(syscall.SIGINT)

	assert.Equal(t, []string{"halt", "cancel", "halt", "exit"}, calls)
}

func TestUSR1SavesAPicture(t *testing.T) {
	var calls []string
	h := &signalHandler{
		cancel:      func() { calls = append(calls, "cancel") },
		halt:        func() { calls = append(calls, "halt") },
		savePicture: func() { calls = append(calls, "picture") },
		exit:        func(code int) { calls = append(calls, "exit") },
	}

	h.handle(syscall.SIGUSR1)

	assert.Equal(t, []string{"picture"}, calls)
}
