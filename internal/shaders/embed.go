// Package shaders embeds the WGSL sources for the built-in variants.
package shaders

import "embed"

// FS holds lenia.wgsl, flow_lenia.wgsl, fluid.wgsl and life.wgsl at its root.
//
//go:embed *.wgsl
var FS embed.FS
