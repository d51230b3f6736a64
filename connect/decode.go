package connect

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// decodePayload decodes a base64 wire payload according to its content type.
// An empty payload decodes to nil.
func decodePayload(payload string, contentType string) (interface{}, error) {
	if payload == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode payload")
	}
	return decodeValue(raw, contentType)
}

// decodeValue interprets raw payload bytes. JSON content types are parsed
// into generic values. Everything else is treated as text; text that parses
// as a number becomes a float64, any other text is returned as string.
func decodeValue(raw []byte, contentType string) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if isJSONContentType(contentType) {
		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, errors.Wrap(err, "cannot parse json payload")
		}
		return value, nil
	}
	text := string(raw)
	if number, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		return number, nil
	}
	return text, nil
}
