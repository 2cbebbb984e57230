package datasets

import (
	"bytes"
	"os"

	"github.com/edsrzf/mmap-go"
)

// LineSplit
// A plain-text corpus read as one record per line. The file is mapped into
// memory once and shared by every iterator, so web-scale corpora are not
// copied onto the heap.
type LineSplit struct {
	Path string
	file *os.File
	data mmap.MMap
}

func NewLineSplit(path string) (*LineSplit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	split := &LineSplit{Path: path, file: file}
	if stat.Size() == 0 {
		// mmap rejects empty files.
		return split, nil
	}
	fileMmap, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		file.Close()
		return nil, mmapErr
	}
	split.data = fileMmap
	return split, nil
}

func (split *LineSplit) Records() (RecordIterator, error) {
	offset := 0
	return func() *Record {
		if offset >= len(split.data) {
			return nil
		}
		var line []byte
		if end := bytes.IndexByte(split.data[offset:], '\n'); end < 0 {
			line = split.data[offset:]
			offset = len(split.data)
		} else {
			line = split.data[offset : offset+end]
			offset += end + 1
		}
		return &Record{Line: string(line)}
	}, nil
}

func (split *LineSplit) Close() error {
	if split.data != nil {
		if err := split.data.Unmap(); err != nil {
			split.file.Close()
			return err
		}
		split.data = nil
	}
	return split.file.Close()
}

// MultiLineSplit
// Several plain-text corpora consumed in sequence, as produced by globbing
// a corpus directory.
type MultiLineSplit struct {
	splits []*LineSplit
}

func NewMultiLineSplit(paths []string) (*MultiLineSplit, error) {
	splits := make([]*LineSplit, 0, len(paths))
	for _, path := range paths {
		split, err := NewLineSplit(path)
		if err != nil {
			for _, opened := range splits {
				opened.Close()
			}
			return nil, err
		}
		splits = append(splits, split)
	}
	return &MultiLineSplit{splits: splits}, nil
}

func (multi *MultiLineSplit) Records() (RecordIterator, error) {
	iterators := make([]RecordIterator, len(multi.splits))
	for idx, split := range multi.splits {
		next, err := split.Records()
		if err != nil {
			return nil, err
		}
		iterators[idx] = next
	}
	current := 0
	return func() *Record {
		for current < len(iterators) {
			if record := iterators[current](); record != nil {
				return record
			}
			current += 1
		}
		return nil
	}, nil
}

func (multi *MultiLineSplit) Close() error {
	var err error
	for _, split := range multi.splits {
		if closeErr := split.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}
