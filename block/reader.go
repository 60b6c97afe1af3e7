// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Reader decodes a stream of JSON encoded blocks.
type Reader struct {
	dec  *json.Decoder
	last uint32
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// Next returns the next block, or io.EOF at the end of the stream.
// Blocks must be in strictly increasing height order.
func (r *Reader) Next() (*Block, error) {
	var blk Block
	if err := r.dec.Decode(&blk); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "decode block")
	}
	if r.last != 0 && blk.Height != r.last+1 {
		return nil, errors.Errorf("block #%d out of order, expected #%d", blk.Height, r.last+1)
	}
	r.last = blk.Height
	return &blk, nil
}
