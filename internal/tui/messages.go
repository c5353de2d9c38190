package tui

import (
	"lumen/internal/fs"
	"lumen/internal/op"
	"lumen/internal/store"
)

type fsResponseMsg struct {
	resp fs.Response
}

type storeResponseMsg struct {
	resp store.Response
}

type opCompletionMsg struct {
	completion op.Completion
}

type conflictMsg struct {
	req *op.ConflictRequest
}

type watchMsg struct {
	dir string
}

type thumbLoadedMsg struct {
	path string
}

type tickMsg struct{}
