package bridge

// Result is the outcome of a call in the form the C boundary encodes it:
// either the rendered text or a formatted diagnostic.
type Result struct {
	OK   bool
	Text string
}

// Success wraps rendered text.
func Success(text string) Result {
	return Result{OK: true, Text: text}
}

// Failure wraps a diagnostic message.
func Failure(diagnostic string) Result {
	return Result{Text: diagnostic}
}

// RenderResult runs req and folds any error into a Failure carrying
// FormatError's diagnostic.
func (r *Renderer) RenderResult(req Request) Result {
	out, err := r.Render(req)
	if err != nil {
		return Failure(FormatError(err))
	}
	return Success(out)
}
