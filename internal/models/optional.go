package models

import (
	"bytes"
	"encoding/json"
)

// Optional は「未指定」「null」「値あり」を区別して保持します。
// 部分更新で、送られてきたフィールドだけを反映するために使います。
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some は値ありのOptionalを返します。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null は明示的なnullを表すOptionalを返します。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present は値ありの場合に true を返します。
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Ptr は値ありの場合に値へのポインタを、それ以外は nil を返します。
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

// IsZero は omitzero 用です。未指定のフィールドはJSONから除外されます。
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}
