// Package audiolength measures MP3 playback time by decoding every MPEG frame
// header instead of trusting container metadata.
package audiolength

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tcolgate/mp3"
)

// Of returns the summed duration of all MPEG audio frames in the file at path.
func Of(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode sums frame durations read from r. A leading ID3v2 tag is skipped.
func Decode(r io.Reader) (time.Duration, error) {
	br := bufio.NewReader(r)
	if err := skipID3v2(br); err != nil {
		return 0, err
	}

	decoder := mp3.NewDecoder(br)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames > 0 && errors.Is(err, io.ErrUnexpectedEOF) {
				// truncated trailing frame
				break
			}
			return 0, fmt.Errorf("decode mp3 frame %d: %w", frames, err)
		}
		total += frame.Duration()
		frames++
	}
	if frames == 0 {
		return 0, errors.New("no mpeg audio frames found")
	}
	return total, nil
}

func skipID3v2(br *bufio.Reader) error {
	header, err := br.Peek(10)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read audio header: %w", err)
	}
	if string(header[:3]) != "ID3" {
		return nil
	}
	size := int(header[6]&0x7f)<<21 | int(header[7]&0x7f)<<14 | int(header[8]&0x7f)<<7 | int(header[9]&0x7f)
	if header[5]&0x10 != 0 {
		size += 10 // footer
	}
	if _, err := br.Discard(10 + size); err != nil {
		return fmt.Errorf("skip id3v2 tag: %w", err)
	}
	return nil
}
