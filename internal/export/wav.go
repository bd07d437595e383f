package export

import (
	"encoding/binary"
	"fmt"
	"os"

	"montage/internal/mixer"
)

const wavHeaderSize = 44

// wavWriter streams s16le PCM into a RIFF/WAVE file, writing a placeholder
// header up front and patching the chunk sizes on close.
type wavWriter struct {
	f    *os.File
	data int64
}

func newWAVWriter(path string) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(make([]byte, wavHeaderSize)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return &wavWriter{f: f}, nil
}

func (w *wavWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.data += int64(n)
	return n, err
}

func (w *wavWriter) Close() error {
	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+w.data))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], mixer.Channels)
	binary.LittleEndian.PutUint32(header[24:], mixer.SampleRate)
	binary.LittleEndian.PutUint32(header[28:], mixer.SampleRate*mixer.Channels*2)
	binary.LittleEndian.PutUint16(header[32:], mixer.Channels*2)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(w.data))

	if _, err := w.f.WriteAt(header, 0); err != nil {
		w.f.Close()
		return fmt.Errorf("patch wav header: %w", err)
	}
	return w.f.Close()
}
