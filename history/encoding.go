package history

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Revisions are keyed by their big-endian sequence number so that cursor
// order is chronological.
func seqKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), seq)
}

func keySeq(key []byte) uint64 {
	if len(key) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key)
}

func encodeRevision(rev *Revision) []byte {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(rev)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode revision of %s using MsgPack: %w", rev.Database, err))
	}
	return buf.Bytes()
}

func decodeRevision(key, data []byte) (*Revision, error) {
	rev := new(Revision)
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(data))
	err := dec.Decode(rev)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("history: corrupted revision %x: %w", key, err)
	}
	rev.Seq = keySeq(key)
	return rev, nil
}
