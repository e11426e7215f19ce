package cabi

/*
#define TPLBRIDGE_NO_EXPORTS
#include <stdlib.h>
#include "tplbridge.h"
*/
import "C"

import (
	"unsafe"

	"github.com/goliatone/go-tplbridge/pkg/bridge"
)

// callOutcome is what a host observes from one render_template call.
type callOutcome struct {
	ok   bool
	text string
}

// roundTrip drives the exports the way a C host would: inputs are copied to
// the C heap, render_template is called, the result is read and then released
// with free_result_cstring. A nil path passes NULL; suffixes are only passed
// when non-nil.
func roundTrip(source, jsonContext string, path []byte, autoescape bool, suffixes []string) callOutcome {
	cSource := C.CString(source)
	defer C.free(unsafe.Pointer(cSource))
	cJSON := C.CString(jsonContext)
	defer C.free(unsafe.Pointer(cJSON))

	var cPath *C.char
	if path != nil {
		cPath = (*C.char)(C.CBytes(append(append([]byte(nil), path...), 0)))
		defer C.free(unsafe.Pointer(cPath))
	}

	var cSuffixes **C.char
	if suffixes != nil {
		size := C.size_t(len(suffixes)+1) * C.size_t(unsafe.Sizeof(uintptr(0)))
		cSuffixes = (**C.char)(C.malloc(size))
		defer C.free(unsafe.Pointer(cSuffixes))

		slots := unsafe.Slice(cSuffixes, len(suffixes)+1)
		for i, suffix := range suffixes {
			slots[i] = C.CString(suffix)
			defer C.free(unsafe.Pointer(slots[i]))
		}
		slots[len(suffixes)] = nil
	}

	result := render_template(
		cSource, C.size_t(len(source)),
		cJSON, C.size_t(len(jsonContext)),
		cPath,
		C.bool(autoescape),
		cSuffixes, C.size_t(len(suffixes)),
	)

	outcome := callOutcome{
		ok:   result.tag == C.ResultCString_Tag(C.Ok),
		text: C.GoString(C.tplbridge_result_text(result)),
	}
	free_result_cstring(result)
	return outcome
}

// encodeOutcome encodes text through the same path render_template uses and
// reads it back.
func encodeOutcome(ok bool, text string) callOutcome {
	in := bridge.Failure(text)
	if ok {
		in = bridge.Success(text)
	}
	res := encode(in)
	outcome := callOutcome{
		ok:   res.tag == C.ResultCString_Tag(C.Ok),
		text: C.GoString(C.tplbridge_result_text(res)),
	}
	free_result_cstring(res)
	return outcome
}
