package encode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alharthydev/compresspro/internal/types"
)

// vaapiDeviceArgs initializes the default render node for VAAPI encoders.
// The validation encode fails fast when the node is absent, which the
// attempt loop recovers from.
func vaapiDeviceArgs() []string {
	return []string{
		"-init_hw_device", "vaapi=va:/dev/dri/renderD128",
		"-filter_hw_device", "va",
	}
}

// buildEncodeArgs constructs the full ffmpeg argument list for a real
// compression run with the given candidate.
func buildEncodeArgs(candidate types.EncoderCandidate, req types.CompressionRequest) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
	}

	if candidate.Hardware == types.HardwareVAAPI {
		args = append(args, vaapiDeviceArgs()...)
	}

	args = append(args, "-i", req.InputPath)
	args = append(args, "-c:v", candidate.Encoder)
	args = append(args, rateControlArgs(candidate, req)...)
	args = append(args, filterArgs(candidate, req)...)

	if fps, ok := req.FrameRate.Value(); ok {
		args = append(args, "-r", fmt.Sprintf("%d", fps))
	}
	if req.Threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", req.Threads))
	}

	args = append(args, audioArgs(req)...)
	args = append(args, containerArgs(req.OutputPath)...)

	// Machine-readable progress on stdout for the worker.
	args = append(args, "-progress", "pipe:1", "-nostats")

	args = append(args, req.OutputPath)
	return args
}

// buildValidationArgs constructs a one-frame synthetic test encode that
// proves the candidate can open with the request's quality parameters.
func buildValidationArgs(candidate types.EncoderCandidate, req types.CompressionRequest) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
	}

	if candidate.Hardware == types.HardwareVAAPI {
		args = append(args, vaapiDeviceArgs()...)
	}

	args = append(args,
		"-f", "lavfi",
		"-i", "testsrc=duration=1:size=320x240:rate=30",
		"-frames:v", "1",
		"-c:v", candidate.Encoder,
	)
	args = append(args, rateControlArgs(candidate, req)...)
	args = append(args, filterArgs(candidate, req)...)
	args = append(args, "-an", "-f", "null", "-")
	return args
}

// rateControlArgs maps the request's quality mode to the candidate's
// vendor-specific rate control flags.
func rateControlArgs(candidate types.EncoderCandidate, req types.CompressionRequest) []string {
	if req.QualityMode == types.QualityBitrate {
		return []string{"-b:v", req.Bitrate}
	}

	crf := fmt.Sprintf("%d", req.CRF)
	preset := req.Preset
	if preset == "" {
		preset = "medium"
	}

	switch candidate.Hardware {
	case types.HardwareNVENC:
		// NVENC has no CRF; constant-quality VBR is the equivalent.
		return []string{"-rc", "vbr", "-cq", crf, "-b:v", "0", "-preset", "p4"}
	case types.HardwareQSV:
		return []string{"-global_quality", crf, "-preset", preset}
	case types.HardwareVAAPI:
		return []string{"-qp", crf}
	case types.HardwareVideoToolbox:
		return []string{"-q:v", crf}
	default:
		switch candidate.Encoder {
		case "libvpx-vp9":
			return []string{"-crf", crf, "-b:v", "0"}
		case "libsvtav1":
			return []string{"-crf", crf, "-preset", "8"}
		default:
			return []string{"-crf", crf, "-preset", preset}
		}
	}
}

// filterArgs builds the video filter chain for the resolution policy and
// the candidate's pixel format needs.
func filterArgs(candidate types.EncoderCandidate, req types.CompressionRequest) []string {
	width, height, scaled := req.Resolution.Dimensions()

	if candidate.Hardware == types.HardwareVAAPI {
		// VAAPI encodes from surfaces, so frames are uploaded after any
		// software scaling.
		filter := "format=nv12,hwupload"
		if scaled {
			filter = fmt.Sprintf("scale=%d:%d,", width, height) + filter
		}
		return []string{"-vf", filter}
	}

	args := []string{}
	if scaled {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", width, height))
	}
	args = append(args, "-pix_fmt", "yuv420p")
	return args
}

// audioArgs maps the request's audio settings to ffmpeg flags.
func audioArgs(req types.CompressionRequest) []string {
	codec := req.AudioCodec
	if codec == "" {
		codec = "aac"
	}
	if codec == "copy" {
		return []string{"-c:a", "copy"}
	}

	bitrate := req.AudioBitrate
	if bitrate == "" {
		bitrate = "128k"
	}
	return []string{"-c:a", codec, "-b:a", bitrate}
}

// containerArgs selects the output container from the file extension.
func containerArgs(outputPath string) []string {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".mkv":
		return []string{"-f", "matroska"}
	case ".webm":
		return []string{"-f", "webm"}
	case ".mov":
		return []string{"-f", "mov", "-movflags", "+faststart"}
	default:
		return []string{"-f", "mp4", "-movflags", "+faststart"}
	}
}
