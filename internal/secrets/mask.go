package secrets

import (
	"bytes"
	"io"
)

// Masker wraps w so that any secret value in the bundle is redacted before it
// reaches w. Masking is line buffered: a secret split across two writes is
// still caught as long as it does not span a newline. Close flushes any
// unterminated final line.
func (b *Bundle) Masker(w io.Writer) io.WriteCloser {
	return &maskWriter{bundle: b, dst: w}
}

type maskWriter struct {
	bundle *Bundle
	dst    io.Writer
	buf    bytes.Buffer
}

func (mw *maskWriter) Write(p []byte) (int, error) {
	mw.buf.Write(p)
	data := mw.buf.Bytes()
	idx := bytes.LastIndexByte(data, '\n')
	if idx < 0 {
		return len(p), nil
	}
	masked := mw.bundle.Mask(string(data[:idx+1]))
	mw.buf.Next(idx + 1)
	if _, err := io.WriteString(mw.dst, masked); err != nil {
		return len(p), err
	}
	return len(p), nil
}

func (mw *maskWriter) Close() error {
	if mw.buf.Len() == 0 {
		return nil
	}
	masked := mw.bundle.Mask(mw.buf.String())
	mw.buf.Reset()
	_, err := io.WriteString(mw.dst, masked)
	return err
}
