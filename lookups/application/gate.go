package application

import "golang.org/x/sync/singleflight"

// Gate runs at most one operation per key at a time. Callers arriving while
// an operation is in flight wait for it and share its result, including its
// error. Once the operation settles the key is free again.
type Gate[T any] struct {
	group singleflight.Group
}

func NewGate[T any]() *Gate[T] {
	return &Gate[T]{}
}

// Run executes op under key, or joins the execution already in flight.
func (g *Gate[T]) Run(key string, op func() (T, error)) (T, error) {
	v, err, _ := g.group.Do(key, func() (any, error) {
		res, err := op()
		return res, err
	})
	res, _ := v.(T)
	return res, err
}

