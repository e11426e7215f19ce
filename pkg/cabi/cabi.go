// Package cabi exposes the bridge through a C calling convention.
//
// Build the shared library from cmd/libtplbridge:
//
//	CGO_ENABLED=1 go build -buildmode=c-shared -o libtplbridge.so ./cmd/libtplbridge
//
// and declare the entry points with tplbridge.h. render_template returns a
// ResultCString whose string belongs to the caller from that point on; the
// caller releases it with free_result_cstring exactly once. Releasing twice, or
// releasing a value this library did not produce, is undefined behaviour.
package cabi

/*
#define TPLBRIDGE_NO_EXPORTS
#include <stdlib.h>
#include "tplbridge.h"
*/
import "C"

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unsafe"

	"github.com/goliatone/go-tplbridge/pkg/bridge"
)

// LogEnv names the environment variable holding the log level of the shared
// library. Unset or invalid disables logging.
const LogEnv = "TPLBRIDGE_LOG"

// levelOff sits above every level the library logs at.
const levelOff = slog.LevelError + 1

const (
	interiorNULMessage = "rendered output contains an interior NUL byte"
	fallbackDiagnostic = "render failed: diagnostic message could not be encoded"
)

var (
	rendererOnce sync.Once
	shared       *bridge.Renderer
)

// renderer returns the process renderer. It carries configuration only; each
// call still builds its own engine.
func renderer() *bridge.Renderer {
	rendererOnce.Do(func() {
		shared = bridge.New(bridge.WithLogger(loggerFromEnv(os.Getenv(LogEnv))))
	})
	return shared
}

func loggerFromEnv(value string) *slog.Logger {
	var level slog.Level
	if value == "" || level.UnmarshalText([]byte(strings.TrimSpace(value))) != nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelOff}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("component", "tplbridge")
}

//export render_template
func render_template(
	templateSource *C.char,
	templateSourceLen C.size_t,
	jsonContext *C.char,
	jsonContextLen C.size_t,
	templatePath *C.char,
	autoescape C.bool,
	autoescapeOn **C.char,
	autoescapeOnCount C.size_t,
) (result C.ResultCString) {
	defer func() {
		if r := recover(); r != nil {
			result = encode(bridge.Failure(fmt.Sprintf("render failed: %v", r)))
		}
	}()

	req := bridge.Request{
		Source:     bridge.RawBuffer{Data: unsafe.Pointer(templateSource), Len: int(templateSourceLen)}.Text(),
		Context:    bridge.RawBuffer{Data: unsafe.Pointer(jsonContext), Len: int(jsonContextLen)}.Bytes(),
		Autoescape: bool(autoescape),
	}
	if path, ok := bridge.OptionalCString(unsafe.Pointer(templatePath)); ok {
		req.TemplatePath = path
	}
	if req.Autoescape && autoescapeOnCount > 0 {
		req.AutoescapeOn = bridge.CStringArray(unsafe.Pointer(autoescapeOn), int(autoescapeOnCount))
	}

	return encode(renderer().RenderResult(req))
}

//export free_result_cstring
func free_result_cstring(result C.ResultCString) {
	if text := C.tplbridge_result_text(result); text != nil {
		C.free(unsafe.Pointer(text))
	}
}

// encode moves res onto the C heap. Text with an interior NUL cannot be a C
// string: rendered output turns into an error, a diagnostic into a fixed one.
func encode(res bridge.Result) C.ResultCString {
	tag := C.ResultCString_Tag(C.Ok)
	if !res.OK {
		tag = C.ResultCString_Tag(C.Err)
	}

	text := res.Text
	if strings.IndexByte(text, 0) >= 0 {
		if res.OK {
			tag = C.ResultCString_Tag(C.Err)
			text = interiorNULMessage
		} else {
			text = fallbackDiagnostic
		}
	}

	return C.tplbridge_result(tag, C.CString(text))
}
