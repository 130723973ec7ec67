package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// EncodeWAV wraps PCM16 little-endian samples into a canonical 44-byte-header WAV file.
func EncodeWAV(samples []int16, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		channels = 1
	}

	dataSize := uint32(len(samples) * 2)
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("audio: write samples: %w", err)
	}

	return buf.Bytes(), nil
}

// decodeWAV walks the RIFF chunks and returns interleaved PCM16 samples.
// Browser recorders often insert LIST or fact chunks, so the fmt and data
// chunks are located by scanning instead of fixed offsets.
func decodeWAV(data []byte) (*PCM, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: wav header truncated", ErrCorrupt)
	}

	var (
		format   Format
		haveFmt  bool
		payload  []byte
		haveData bool
	)
	format.Container = ContainerWAV

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		switch {
		case id == "data" && (size == 0 || end > len(data)):
			// Streaming recorders leave the data size zero or unset; take the rest.
			end = len(data)
		case size < 0 || end > len(data):
			return nil, fmt.Errorf("%w: chunk %q overruns buffer", ErrCorrupt, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrCorrupt)
			}
			tag := binary.LittleEndian.Uint16(data[body : body+2])
			if tag != wavFormatPCM && tag != wavFormatExtensible {
				return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedEncoding, tag)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			format.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			payload = data[body:end]
			haveData = true
		}

		// Chunks are word aligned.
		pos = end + size%2
		if haveFmt && haveData {
			break
		}
	}

	if !haveFmt || !haveData {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", ErrCorrupt)
	}
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedEncoding, format.BitDepth)
	}
	if format.Channels < 1 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrCorrupt, format.Channels, format.SampleRate)
	}

	return &PCM{
		Samples: BytesToSamples(payload),
		Format:  format,
	}, nil
}
