package gsdb

import (
	"bytes"
	"sync"
)

// textBufferPool holds buffers that capture written database text for the
// history recorder.
var textBufferPool = &sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func releaseTextBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1<<20 {
		return
	}
	buf.Reset()
	textBufferPool.Put(buf)
}
