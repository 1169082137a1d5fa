package domain

// Zero overwrites every key buffer passed to it. Nil buffers are ignored.
func Zero(keys ...[]byte) {
	for _, k := range keys {
		clear(k)
	}
}
