//go:build !js_eval

package expression

// NewJS reports ErrUnavailable; build with -tags js_eval for goja support.
func NewJS(...Option) (Engine, error) {
	return nil, ErrUnavailable
}
