package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// EncoderStatusCompleted encoder result tag
	EncoderStatusCompleted = "COMPLETED"
	// EncoderStatusError encoder result tag
	EncoderStatusError = "ERROR"
)

// EncoderResult one of EncoderCompleted, EncoderError, EncoderUnknown
type EncoderResult interface {
	encoderResult()
}

// EncoderVideoMetadata encoded output of one asset
type EncoderVideoMetadata struct {
	ResourceID         string `json:"resource_id"`
	EncodedVideoFolder string `json:"encoded_video_folder"`
	FilePath           string `json:"file_path"`
}

// EncoderCompleted encoder 完成轉碼
type EncoderCompleted struct {
	ID               string               `json:"id"`
	OutputBucketPath string               `json:"output_bucket_path"`
	Video            EncoderVideoMetadata `json:"video"`
}

// EncoderMessage the job the encoder failed on
type EncoderMessage struct {
	ResourceID string `json:"resource_id"`
	FilePath   string `json:"file_path"`
}

// EncoderError encoder 轉碼失敗
type EncoderError struct {
	ID      string         `json:"id"`
	Message EncoderMessage `json:"message"`
	Reason  string         `json:"error"`
}

// EncoderUnknown 無法辨識的 status tag
type EncoderUnknown struct {
	Status string
	Raw    []byte
}

func (EncoderCompleted) encoderResult() {}
func (EncoderError) encoderResult()     {}
func (EncoderUnknown) encoderResult()   {}

// DecodeEncoderResult decode by the "status" discriminator.
// Unknown tags are not an error; broken JSON or a COMPLETED without ids is ErrMalformedPayload.
func DecodeEncoderResult(body []byte) (EncoderResult, error) {
	var envelope struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch strings.ToUpper(envelope.Status) {
	case EncoderStatusCompleted:
		var r EncoderCompleted
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if r.ID == "" || r.Video.ResourceID == "" {
			return nil, fmt.Errorf("%w: completed result without video id or resource id", ErrMalformedPayload)
		}
		return r, nil
	case EncoderStatusError:
		var r EncoderError
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return r, nil
	default:
		return EncoderUnknown{Status: envelope.Status, Raw: body}, nil
	}
}

// EncodeJob message published to the encoder job queue
type EncodeJob struct {
	VideoID    string         `json:"video_id"`
	ResourceID string         `json:"resource_id"`
	FilePath   string         `json:"file_path"`
	MediaType  VideoMediaType `json:"media_type"`
}
