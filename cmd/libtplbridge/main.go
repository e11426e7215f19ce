// Command libtplbridge links the C entry points into a shared library:
//
//	CGO_ENABLED=1 go build -buildmode=c-shared -o libtplbridge.so ./cmd/libtplbridge
package main

import _ "github.com/goliatone/go-tplbridge/pkg/cabi"

func main() {}
