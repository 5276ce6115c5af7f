// Package types contains shared type definitions for the compression service.
package types

// CodecFamily identifies the target video codec family.
type CodecFamily string

const (
	// CodecH264 targets H.264/AVC output.
	CodecH264 CodecFamily = "h264"
	// CodecH265 targets H.265/HEVC output.
	CodecH265 CodecFamily = "h265"
	// CodecVP9 targets VP9 output.
	CodecVP9 CodecFamily = "vp9"
	// CodecAV1 targets AV1 output.
	CodecAV1 CodecFamily = "av1"
)

// Valid reports whether the codec family is one of the supported values.
func (c CodecFamily) Valid() bool {
	switch c {
	case CodecH264, CodecH265, CodecVP9, CodecAV1:
		return true
	}
	return false
}

// HardwareType represents a hardware acceleration preference or requirement.
type HardwareType string

const (
	// HardwareAuto tries hardware vendors in priority order with a software fallback.
	HardwareAuto HardwareType = "auto"
	// HardwareNVENC uses NVIDIA NVENC acceleration.
	HardwareNVENC HardwareType = "nvenc"
	// HardwareQSV uses Intel Quick Sync Video.
	HardwareQSV HardwareType = "qsv"
	// HardwareVAAPI uses VA-API acceleration (Linux).
	HardwareVAAPI HardwareType = "vaapi"
	// HardwareVideoToolbox uses Apple VideoToolbox (macOS).
	HardwareVideoToolbox HardwareType = "videotoolbox"
	// HardwareCPU uses software encoding only.
	HardwareCPU HardwareType = "cpu"
)

// Valid reports whether the hardware type is one of the supported values.
func (h HardwareType) Valid() bool {
	switch h {
	case HardwareAuto, HardwareNVENC, HardwareQSV, HardwareVAAPI, HardwareVideoToolbox, HardwareCPU:
		return true
	}
	return false
}

// Vendor reports whether the hardware type names a specific acceleration vendor.
func (h HardwareType) Vendor() bool {
	switch h {
	case HardwareNVENC, HardwareQSV, HardwareVAAPI, HardwareVideoToolbox:
		return true
	}
	return false
}

// QualityMode selects how output quality is controlled.
type QualityMode string

const (
	// QualityCRF encodes to a constant rate factor with variable bitrate.
	QualityCRF QualityMode = "crf"
	// QualityBitrate encodes to a fixed target bitrate.
	QualityBitrate QualityMode = "bitrate"
)

// ResolutionPolicy selects the output resolution.
type ResolutionPolicy string

const (
	// ResolutionOriginal keeps the source resolution.
	ResolutionOriginal ResolutionPolicy = "original"
	// Resolution1080p scales to 1920x1080.
	Resolution1080p ResolutionPolicy = "1080p"
	// Resolution720p scales to 1280x720.
	Resolution720p ResolutionPolicy = "720p"
	// Resolution480p scales to 854x480.
	Resolution480p ResolutionPolicy = "480p"
)

// Dimensions returns the target width and height for a fixed resolution
// policy. The bool is false for ResolutionOriginal and unknown values.
func (r ResolutionPolicy) Dimensions() (width, height int, ok bool) {
	switch r {
	case Resolution1080p:
		return 1920, 1080, true
	case Resolution720p:
		return 1280, 720, true
	case Resolution480p:
		return 854, 480, true
	}
	return 0, 0, false
}

// FrameRatePolicy selects the output frame rate.
type FrameRatePolicy string

const (
	// FrameRateOriginal keeps the source frame rate.
	FrameRateOriginal FrameRatePolicy = "original"
	// FrameRate24 outputs 24 fps.
	FrameRate24 FrameRatePolicy = "24"
	// FrameRate30 outputs 30 fps.
	FrameRate30 FrameRatePolicy = "30"
	// FrameRate60 outputs 60 fps.
	FrameRate60 FrameRatePolicy = "60"
)

// Value returns the fixed frame rate. The bool is false for
// FrameRateOriginal and unknown values.
func (f FrameRatePolicy) Value() (int, bool) {
	switch f {
	case FrameRate24:
		return 24, true
	case FrameRate30:
		return 30, true
	case FrameRate60:
		return 60, true
	}
	return 0, false
}

// CompressionRequest describes a single compression job. A request is
// immutable once compression starts; the worker operates on its own copy.
type CompressionRequest struct {
	InputPath    string           `json:"input_path"`
	OutputPath   string           `json:"output_path"`
	Codec        CodecFamily      `json:"codec"`
	QualityMode  QualityMode      `json:"quality_mode"`
	CRF          int              `json:"crf"`
	Bitrate      string           `json:"bitrate,omitempty"`
	Resolution   ResolutionPolicy `json:"resolution"`
	FrameRate    FrameRatePolicy  `json:"fps"`
	Preset       string           `json:"preset,omitempty"`
	Threads      int              `json:"threads,omitempty"`
	Hardware     HardwareType     `json:"hardware"`
	AudioCodec   string           `json:"audio_codec,omitempty"`
	AudioBitrate string           `json:"audio_bitrate,omitempty"`
}

// EncoderCandidate is one concrete encoder configuration attempted during
// resolution.
type EncoderCandidate struct {
	// Encoder is the concrete ffmpeg encoder identifier, e.g. "h264_nvenc".
	Encoder string `json:"encoder"`
	// Priority is the candidate's rank in the resolved list, starting at 0.
	Priority int `json:"priority"`
	// Hardware is the acceleration the candidate requires. HardwareCPU
	// means no acceleration is needed.
	Hardware HardwareType `json:"hardware"`
}

// AttemptResult records the outcome of trying one encoder candidate.
type AttemptResult struct {
	Candidate  EncoderCandidate `json:"candidate"`
	Success    bool             `json:"success"`
	Diagnostic string           `json:"diagnostic,omitempty"`
}

// ProgressUpdate reports encoding progress from the worker.
type ProgressUpdate struct {
	// Fraction is the completed portion of the job in [0, 1].
	Fraction float64 `json:"fraction"`
	// Frame is the index of the most recently encoded frame.
	Frame int64 `json:"frame"`
	// TotalFrames is the estimated frame count of the source.
	TotalFrames int64 `json:"total_frames"`
	// Speed is the encoding speed relative to realtime, e.g. 1.5.
	Speed float64 `json:"speed"`
}

// JobStatus describes the lifecycle state of a compression job.
type JobStatus string

const (
	// JobPending means the job has been accepted but not started encoding.
	JobPending JobStatus = "pending"
	// JobRunning means the worker is encoding.
	JobRunning JobStatus = "running"
	// JobCompleted means the output was written successfully.
	JobCompleted JobStatus = "completed"
	// JobFailed means the job ended with an error.
	JobFailed JobStatus = "failed"
	// JobCancelled means the job was cancelled by the user.
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}
