package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	mandel "github.com/marben/mandelview"
)

var magic = []byte("MDV1")

// ErrCorrupt is returned when stored bytes do not decode to a matrix.
var ErrCorrupt = errors.New("corrupt matrix encoding")

// Encode serialises m as a header (magic, width, height, max iterations)
// followed by one uvarint per cell in row order.
func Encode(m *mandel.Matrix) []byte {
	buf := make([]byte, 0, len(magic)+12+m.Width()*m.Height())
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(m.Width()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(m.Height()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(m.MaxIter()))
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			buf = binary.AppendUvarint(buf, uint64(m.At(x, y)))
		}
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*mandel.Matrix, error) {
	if len(data) < len(magic)+12 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	data = data[len(magic):]
	w := binary.BigEndian.Uint32(data[0:4])
	h := binary.BigEndian.Uint32(data[4:8])
	maxIter := int(binary.BigEndian.Uint32(data[8:12]))
	data = data[12:]
	// every cell takes at least one byte
	if w == 0 || h == 0 || uint64(w)*uint64(h) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %dx%d does not fit %d bytes", ErrCorrupt, w, h, len(data))
	}

	rows := make([][]int, int(h))
	for y := range rows {
		row := make([]int, int(w))
		for x := range row {
			v, n := binary.Uvarint(data)
			if n <= 0 {
				return nil, fmt.Errorf("%w: truncated at cell (%d,%d)", ErrCorrupt, x, y)
			}
			row[x] = int(v)
			data = data[n:]
		}
		rows[y] = row
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data))
	}
	m, err := mandel.NewMatrix(rows, maxIter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return m, nil
}
