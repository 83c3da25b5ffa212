package domain

import "errors"

var (
	// ErrVideoNotFound 影片不存在
	ErrVideoNotFound = errors.New("video not found")
	// ErrMediaNotFound slot 上沒有 media 或 storage 找不到 resource
	ErrMediaNotFound = errors.New("media not found")
	// ErrUnknownMediaType media type 不是已知的 slot
	ErrUnknownMediaType = errors.New("unknown media type")
	// ErrUnknownMediaStatus status 不是 PENDING / PROCESSING / COMPLETED
	ErrUnknownMediaStatus = errors.New("unknown media status")
	// ErrInvalidEncodedLocation COMPLETED 必須帶 encoded location
	ErrInvalidEncodedLocation = errors.New("encoded location is required for completed media")
	// ErrMalformedPayload encoder 訊息無法解析
	ErrMalformedPayload = errors.New("malformed encoder payload")
)
