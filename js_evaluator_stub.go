//go:build !js_eval

package params

// NewJSEvaluator returns nil unless the binary is built with the js_eval tag.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	_ = applyEvaluatorOptions(opts)
	return nil
}

// JSEvaluatorAvailable reports whether the binary was built with goja support.
func JSEvaluatorAvailable() bool {
	return false
}
