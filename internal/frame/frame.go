package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"trepro/internal/faults"
)

var (
	// Start opens the metadata block.
	Start = []byte("---Savefig_Metadata_Start---")
	// End closes the metadata block.
	End = []byte("---Savefig_Metadata_End---")
	// trailerMagic terminates an optional trailer.
	trailerMagic = []byte("TRPX")
)

// TrailerSize is the byte length of the optional trailer.
const TrailerSize = 8 + 8 + 4

// Options controls how Append writes a frame.
type Options struct {
	// Trailer adds the length/checksum trailer after End.
	Trailer bool
}

// Info describes where a frame sits inside a file.
type Info struct {
	PayloadEnd int
	BlockStart int
	BlockEnd   int
	FrameEnd   int
	Trailer    bool
	Checksum   uint64
}

// BlockSize is the length of the block between the sentinels.
func (i Info) BlockSize() int {
	return i.BlockEnd - i.BlockStart
}

// Build returns the bytes Append would write for block.
func Build(block []byte, opts Options) []byte {
	size := len(Start) + len(block) + len(End)
	if opts.Trailer {
		size += TrailerSize
	}
	out := make([]byte, 0, size)
	out = append(out, Start...)
	out = append(out, block...)
	out = append(out, End...)
	if opts.Trailer {
		out = binary.BigEndian.AppendUint64(out, uint64(len(block)))
		out = binary.BigEndian.AppendUint64(out, xxhash.Sum64(block))
		out = append(out, trailerMagic...)
	}
	return out
}

// Append writes a frame around block to the end of the existing file at path.
func Append(path string, block []byte, opts Options) (err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if _, err := file.Write(Build(block, opts)); err != nil {
		return fmt.Errorf("append frame to %s: %w", path, err)
	}
	return nil
}

// Locate returns the block bytes and their position in data. A valid trailer
// is authoritative; otherwise the first Start and the first End after it
// delimit the block.
func Locate(data []byte) ([]byte, Info, error) {
	info, ok, err := locateTrailer(data)
	if err != nil {
		return nil, Info{}, err
	}
	if ok {
		return data[info.BlockStart:info.BlockEnd], info, nil
	}

	startAt := bytes.Index(data, Start)
	if startAt < 0 {
		return nil, Info{}, faults.Wrap(faults.ErrFormat, "frame", "locate", "start sentinel not found", nil)
	}
	blockStart := startAt + len(Start)
	rel := bytes.Index(data[blockStart:], End)
	if rel < 0 {
		return nil, Info{}, faults.Wrap(faults.ErrFormat, "frame", "locate", "end sentinel not found", nil)
	}
	blockEnd := blockStart + rel
	info = Info{
		PayloadEnd: startAt,
		BlockStart: blockStart,
		BlockEnd:   blockEnd,
		FrameEnd:   blockEnd + len(End),
	}
	return data[blockStart:blockEnd], info, nil
}

var errNoTrailer = errors.New("no trailer")

func locateTrailer(data []byte) (Info, bool, error) {
	info, err := parseTrailer(data)
	if errors.Is(err, errNoTrailer) {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, err
	}
	return info, true, nil
}

func parseTrailer(data []byte) (Info, error) {
	if len(data) < len(Start)+len(End)+TrailerSize || !bytes.HasSuffix(data, trailerMagic) {
		return Info{}, errNoTrailer
	}
	trailerAt := len(data) - TrailerSize
	length := binary.BigEndian.Uint64(data[trailerAt : trailerAt+8])
	checksum := binary.BigEndian.Uint64(data[trailerAt+8 : trailerAt+16])

	endAt := trailerAt - len(End)
	if length > uint64(endAt) {
		return Info{}, errNoTrailer
	}
	blockStart := endAt - int(length)
	startAt := blockStart - len(Start)
	if startAt < 0 || !bytes.Equal(data[endAt:trailerAt], End) || !bytes.Equal(data[startAt:blockStart], Start) {
		return Info{}, errNoTrailer
	}
	if sum := xxhash.Sum64(data[blockStart:endAt]); sum != checksum {
		return Info{}, faults.Wrap(faults.ErrFormat, "frame", "verify trailer",
			fmt.Sprintf("checksum mismatch (stored %016x, computed %016x)", checksum, sum), nil)
	}
	return Info{
		PayloadEnd: startAt,
		BlockStart: blockStart,
		BlockEnd:   endAt,
		FrameEnd:   len(data),
		Trailer:    true,
		Checksum:   checksum,
	}, nil
}

// PayloadEnd reports where the payload stops. Without a usable frame it falls
// back to the first Start, and returns -1 when there is none.
func PayloadEnd(data []byte) int {
	if _, info, err := Locate(data); err == nil {
		return info.PayloadEnd
	}
	return bytes.Index(data, Start)
}

// Strip returns the payload segment of a framed file.
func Strip(data []byte) ([]byte, error) {
	_, info, err := Locate(data)
	if err != nil {
		return nil, err
	}
	return data[:info.PayloadEnd], nil
}

// HasFrame reports whether data contains a locatable frame.
func HasFrame(data []byte) bool {
	_, _, err := Locate(data)
	return err == nil
}
