package router

// Next continues with the rest of the chain
type Next func() error

// HandlerFunc is a middleware or route handler. It may do work before and
// after calling next, or return without calling it to end the chain.
type HandlerFunc func(c *Context, next Next) error

// Compose builds a single handler that runs handlers in order. The next
// passed to the composed handler runs after the last one; a nil next ends
// the chain without effect.
//
// Each invocation keeps one cursor. Calling next for a stage that was
// already reached returns ErrNextCalledMultipleTimes, and the composed
// handler fails with that error even when the caller discards it. An error
// from any handler aborts the stages not yet reached.
func Compose(handlers ...HandlerFunc) HandlerFunc {
	for _, h := range handlers {
		if h == nil {
			panic("router: nil handler passed to Compose")
		}
	}
	stack := append([]HandlerFunc(nil), handlers...)

	return func(c *Context, next Next) error {
		index := -1
		reentered := false

		var dispatch func(i int) error
		dispatch = func(i int) error {
			if i <= index {
				reentered = true
				return ErrNextCalledMultipleTimes
			}
			index = i

			if i == len(stack) {
				if next == nil {
					return nil
				}
				return next()
			}
			return stack[i](c, func() error {
				return dispatch(i + 1)
			})
		}

		err := dispatch(0)
		if err == nil && reentered {
			return ErrNextCalledMultipleTimes
		}
		return err
	}
}
