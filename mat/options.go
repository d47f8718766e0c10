package mat

// Option configures a decode.
type Option func(*decodeOptions)

type decodeOptions struct {
	rawObjects bool
}

func defaultDecodeOptions() *decodeOptions {
	return &decodeOptions{}
}

// WithRawObjects stops object decoding after graph resolution: objects are
// returned as class name plus ordered property map, without the built-in
// type decoders (timestamps, strings, tables) applied.
func WithRawObjects() Option {
	return func(o *decodeOptions) {
		o.rawObjects = true
	}
}
