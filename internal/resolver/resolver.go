// Package resolver translates codec family and hardware preference into an
// ordered list of concrete encoder candidates.
package resolver

import (
	"runtime"

	"github.com/alharthydev/compresspro/internal/types"
)

// encoderTable maps each hardware type to the concrete ffmpeg encoder per
// codec family. A missing entry means the vendor has no encoder for that
// family and contributes no candidate.
var encoderTable = map[types.HardwareType]map[types.CodecFamily]string{
	types.HardwareNVENC: {
		types.CodecH264: "h264_nvenc",
		types.CodecH265: "hevc_nvenc",
		types.CodecAV1:  "av1_nvenc",
	},
	types.HardwareQSV: {
		types.CodecH264: "h264_qsv",
		types.CodecH265: "hevc_qsv",
		types.CodecAV1:  "av1_qsv",
	},
	types.HardwareVAAPI: {
		types.CodecH264: "h264_vaapi",
		types.CodecH265: "hevc_vaapi",
		types.CodecVP9:  "vp9_vaapi",
		types.CodecAV1:  "av1_vaapi",
	},
	types.HardwareVideoToolbox: {
		types.CodecH264: "h264_videotoolbox",
		types.CodecH265: "hevc_videotoolbox",
	},
	types.HardwareCPU: {
		types.CodecH264: "libx264",
		types.CodecH265: "libx265",
		types.CodecVP9:  "libvpx-vp9",
		types.CodecAV1:  "libsvtav1",
	},
}

// vendorPriority is the fixed attempt order for auto preference when
// multiple vendors are present on one machine.
var vendorPriority = []types.HardwareType{
	types.HardwareNVENC,
	types.HardwareQSV,
	types.HardwareVAAPI,
	types.HardwareVideoToolbox,
}

// Resolve produces the ordered candidate list for a request. The list is
// deterministic from the codec family, the hardware preference and the
// platform; for auto and vendor preferences the software encoder is always
// the final guaranteed fallback.
func Resolve(req types.CompressionRequest) []types.EncoderCandidate {
	return resolveFor(req, runtime.GOOS)
}

func resolveFor(req types.CompressionRequest, goos string) []types.EncoderCandidate {
	var candidates []types.EncoderCandidate

	add := func(hw types.HardwareType) {
		name, ok := encoderTable[hw][req.Codec]
		if !ok {
			return
		}
		candidates = append(candidates, types.EncoderCandidate{
			Encoder:  name,
			Priority: len(candidates),
			Hardware: hw,
		})
	}

	switch {
	case req.Hardware.Vendor():
		add(req.Hardware)
	case req.Hardware == types.HardwareAuto:
		for _, hw := range vendorPriority {
			if platformRelevant(hw, goos) {
				add(hw)
			}
		}
	}

	// Software candidate closes every list; for cpu preference it is the
	// only entry.
	add(types.HardwareCPU)

	return candidates
}

// platformRelevant filters auto-mode vendors to those that can exist on
// the running platform. Explicit vendor preferences bypass this filter;
// their availability is discovered by the attempt loop.
func platformRelevant(hw types.HardwareType, goos string) bool {
	switch hw {
	case types.HardwareVAAPI:
		return goos == "linux"
	case types.HardwareVideoToolbox:
		return goos == "darwin"
	default:
		return true
	}
}

// SoftwareEncoder returns the software encoder identifier for a codec
// family.
func SoftwareEncoder(family types.CodecFamily) string {
	return encoderTable[types.HardwareCPU][family]
}
