package reactive

import "reflect"

// Field is a tracked piece of node state. Setting it to a different value
// invalidates the owning node.
type Field[T any] struct {
	node   *Node
	name   string
	value  T
	equals func(a, b T) bool
}

// Track declares a tracked field on the node being built.
func Track[T any](b *Builder, name string, initial T) *Field[T] {
	b.addField(name)
	return &Field[T]{
		node:   b.node,
		name:   name,
		value:  initial,
		equals: defaultEquals[T],
	}
}

// WithEquals replaces the comparison deciding whether Set changes the value.
func (f *Field[T]) WithEquals(fn func(a, b T) bool) *Field[T] {
	f.equals = fn
	return f
}

// Name returns the field name.
func (f *Field[T]) Name() string { return f.name }

// Node returns the owning node.
func (f *Field[T]) Node() *Node { return f.node }

// Get returns the current value.
func (f *Field[T]) Get() T { return f.value }

// Peek returns the current value. Fields are read through the node's render
// function, so Peek and Get are interchangeable; Peek documents intent at
// call sites outside a render.
func (f *Field[T]) Peek() T { return f.value }

// Set stores v and invalidates the node if the value changed.
func (f *Field[T]) Set(v T) {
	if f.equals(f.value, v) {
		return
	}
	f.value = v
	f.node.Invalidate()
}

// Update applies fn to the current value and stores the result.
func (f *Field[T]) Update(fn func(T) T) {
	f.Set(fn(f.value))
}

// defaultEquals compares comparable basics directly and everything else
// with reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
