// ABOUTME: Encodes embedding vectors as little-endian float32 blobs
// ABOUTME: Blob length must be a multiple of four bytes
package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
)

// vectorToBlob encodes a float32 vector as little-endian bytes.
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector decodes a little-endian float32 blob.
func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
