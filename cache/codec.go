// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Codec converts cache values to and from their payload bytes.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[V any] struct{}

// Encode implements Codec.
func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

// Decode implements Codec.
func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	err := json.Unmarshal(data, &v)
	return v, err
}

// VectorCodec stores float32 vectors in MUS format: a varint length
// followed by fixed-width elements.
type VectorCodec struct{}

var errTrailingBytes = errors.New("trailing bytes after vector")

// Encode implements Codec.
func (VectorCodec) Encode(v []float32) ([]byte, error) {
	size := varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	bs := make([]byte, size)
	n := varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return bs, nil
}

// Decode implements Codec.
func (VectorCodec) Decode(data []byte) ([]float32, error) {
	length, n, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > (len(data)-n)/4 {
		return nil, fmt.Errorf("vector length %d exceeds payload", length)
	}
	v := make([]float32, length)
	for i := range v {
		f, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, err
		}
		v[i] = f
		n += m
	}
	if n != len(data) {
		return nil, errTrailingBytes
	}
	return v, nil
}
