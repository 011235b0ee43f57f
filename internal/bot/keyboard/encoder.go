package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CallbackDataSeparator = ":"
	// CallbackDataLimitBytes is Telegram's limit for callback_data.
	CallbackDataLimitBytes = 64
)

// EncodeCallback joins an action and its payload into callback data.
func EncodeCallback(action, payload string) (string, error) {
	data := action
	if payload != "" {
		data = action + CallbackDataSeparator + payload
	}

	if len(data) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(data))
	}

	return data, nil
}

// DecodeCallback splits callback data produced by EncodeCallback.
func DecodeCallback(data string) (action, payload string, err error) {
	if data == "" {
		return "", "", errors.New("callback data is empty")
	}

	action, payload, _ = strings.Cut(data, CallbackDataSeparator)
	return action, payload, nil
}
