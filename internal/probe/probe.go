// Package probe inspects input media files with ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrNoVideoStream is returned when the input contains no video stream.
var ErrNoVideoStream = errors.New("no video stream found")

// SourceInfo describes the first video stream of an input file.
type SourceInfo struct {
	Container   string
	VideoCodec  string
	AudioCodec  string
	Width       int
	Height      int
	Duration    float64 // seconds
	FrameRate   float64
	TotalFrames int64
	HasAudio    bool
}

// Prober runs ffprobe against input files.
type Prober struct {
	ffprobePath string
	logger      *logrus.Logger
}

// NewProber creates a new prober using the given ffprobe binary.
func NewProber(ffprobePath string, logger *logrus.Logger) *Prober {
	return &Prober{
		ffprobePath: ffprobePath,
		logger:      logger,
	}
}

// Probe inspects the input file and returns its source information.
// A file ffprobe cannot parse, or one without a video stream, is reported
// as an unsupported format by the caller.
func (p *Prober) Probe(ctx context.Context, inputPath string) (SourceInfo, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return SourceInfo{}, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	info, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return SourceInfo{}, err
	}

	p.logger.WithFields(logrus.Fields{
		"input":  inputPath,
		"codec":  info.VideoCodec,
		"width":  info.Width,
		"height": info.Height,
		"frames": info.TotalFrames,
	}).Debug("Probed input file")

	return info, nil
}

// parseProbeOutput decodes ffprobe JSON into SourceInfo. When the stream
// does not carry an explicit frame count, the total is estimated from
// duration and frame rate, defaulting to 30 fps when the rate is unknown.
func parseProbeOutput(data []byte) (SourceInfo, error) {
	var probeData struct {
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType    string `json:"codec_type"`
			CodecName    string `json:"codec_name"`
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			AvgFrameRate string `json:"avg_frame_rate"`
			RFrameRate   string `json:"r_frame_rate"`
			NbFrames     string `json:"nb_frames"`
			Duration     string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(data, &probeData); err != nil {
		return SourceInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := SourceInfo{Container: probeData.Format.FormatName}

	var haveVideo bool
	for _, stream := range probeData.Streams {
		switch stream.CodecType {
		case "video":
			if haveVideo {
				continue
			}
			haveVideo = true
			info.VideoCodec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height

			info.FrameRate = parseRate(stream.AvgFrameRate)
			if info.FrameRate == 0 {
				info.FrameRate = parseRate(stream.RFrameRate)
			}

			if n, err := strconv.ParseInt(stream.NbFrames, 10, 64); err == nil && n > 0 {
				info.TotalFrames = n
			}

			if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil && d > 0 {
				info.Duration = d
			}
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = stream.CodecName
			}
		}
	}

	if !haveVideo {
		return SourceInfo{}, ErrNoVideoStream
	}

	if info.Duration == 0 {
		if d, err := strconv.ParseFloat(probeData.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}

	if info.TotalFrames == 0 && info.Duration > 0 {
		rate := info.FrameRate
		if rate == 0 {
			rate = 30
		}
		info.TotalFrames = int64(info.Duration * rate)
	}

	return info, nil
}

// parseRate converts an ffprobe rational like "30000/1001" to a float.
func parseRate(rate string) float64 {
	if rate == "" || rate == "0/0" {
		return 0
	}

	parts := strings.SplitN(rate, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}

	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
