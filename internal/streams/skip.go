package streams

import (
	"io"
	"sync"
)

const skipChunkSize = 32 * 1024

var skipBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, skipChunkSize)
		return &buf
	},
}

// SkipTo discards exactly offset bytes from r and reports how many it
// actually consumed. The discarded bytes flow through r itself, so on
// a decrypting reader they are decrypted and counted into the
// authentication state like any other read.
//
// A stream shorter than offset is not an error here: SkipTo stops at
// end of stream and returns the short count. Callers decide whether a
// short skip is acceptable.
func SkipTo(r io.Reader, offset int64) (int64, error) {
	if offset <= 0 {
		return 0, nil
	}

	bufp := skipBufPool.Get().(*[]byte)
	defer skipBufPool.Put(bufp)
	buf := *bufp

	var skipped int64
	for skipped < offset {
		want := offset - skipped
		if want > int64(len(buf)) {
			want = int64(len(buf))
		}

		n, err := r.Read(buf[:want])
		skipped += int64(n)

		// End of stream terminates the loop. Without this check a
		// reader that keeps returning 0 would spin forever.
		if err == io.EOF {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
		if n == 0 {
			return skipped, io.ErrNoProgress
		}
	}

	return skipped, nil
}
