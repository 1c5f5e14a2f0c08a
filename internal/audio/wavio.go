package audio

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcm16Scale = 32768.0

// ReadWAV decodes a WAV file into a mono clip. Multi-channel sources are
// downmixed by averaging.
func ReadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode wav %s: missing format", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := math.Pow(2, float64(decoder.BitDepth-1))
	if scale <= 0 {
		scale = pcm16Scale
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = ClampSample(sum / float64(channels))
	}

	return &Clip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// WriteWAV encodes the clip as 16-bit mono PCM.
func WriteWAV(path string, clip *Clip) error {
	if err := clip.validate(); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, clip.SampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(clip.Samples)),
	}
	for i, s := range clip.Samples {
		v := int(math.Round(ClampSample(s) * (pcm16Scale - 1)))
		buf.Data[i] = v
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}
