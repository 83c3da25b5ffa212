package errprocess

import (
	"errors"
	"fmt"

	"catalog_media_service/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap 記錄錯誤並保留原始錯誤, 讓呼叫端可以 errors.Is 判斷
func Wrap(err error, errMsg string) error {
	wrapped := fmt.Errorf("%s : %w", errMsg, err)
	logger.Log.Error(wrapped.Error())
	return wrapped
}
