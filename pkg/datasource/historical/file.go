package historical

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"
)

var ErrEof = errors.New("EOF")

// File is a memory mapped array of fixed size records of type T.
type File[T any] struct {
	path       string
	reader     *mmap.ReaderAt
	bufferPool *sync.Pool
}

func OpenFile[T any](path string) (*File[T], error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open data file %q: %w", path, err)
	}

	return &File[T]{
		path:   path,
		reader: reader,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, int(unsafe.Sizeof(*new(T))))
				return &buffer
			},
		},
	}, nil
}

func (f *File[T]) Close() error {
	return f.reader.Close()
}

func (f *File[T]) Read(index int64, record *T) error {
	buffer := f.bufferPool.Get().(*[]byte)
	defer f.bufferPool.Put(buffer)

	n, err := f.reader.ReadAt(*buffer, index*int64(len(*buffer)))
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read record %d: %w", index, err)
	}
	if n < len(*buffer) {
		return ErrEof
	}

	*record = *(*T)(unsafe.Pointer(&(*buffer)[0])) // #nosec G103
	return nil
}

func (f *File[T]) Len() (int64, error) {
	size := int64(unsafe.Sizeof(*new(T)))
	if size == 0 {
		return 0, fmt.Errorf("record size is zero")
	}

	info, err := os.Stat(f.path)
	if err != nil {
		return 0, fmt.Errorf("unable to stat data file %q: %w", f.path, err)
	}
	if info.Size()%size != 0 {
		return 0, fmt.Errorf("data file %q size %d is not a multiple of record size %d", f.path, info.Size(), size)
	}

	return info.Size() / size, nil
}

// LowerBound returns the first index whose key is >= value, or Len when there is none.
func (f *File[T]) LowerBound(key func(T) int64, value int64) (int64, error) {
	count, err := f.Len()
	if err != nil {
		return 0, err
	}

	var record T
	low, high := int64(0), count-1
	for low <= high {
		mid := (low + high) / 2
		if err := f.Read(mid, &record); err != nil {
			return 0, err
		}
		if key(record) < value {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return low, nil
}
