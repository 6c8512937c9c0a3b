package state

type Pair[T any, V any] struct {
	V1 T
	V2 V
}
