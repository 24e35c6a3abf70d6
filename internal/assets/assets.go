// Package assets embeds the starter files written by `llm-matrix templates install`.
package assets

import "embed"

//go:embed templates/*
var Templates embed.FS
