package utils

import (
	"encoding/json"
)

// Marshal generic struct to JSON
func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// Unmarshal JSON to generic struct
func UnmarshalFromJSON[T any](data []byte, output *T) error {
	return json.Unmarshal(data, output)
}

// RawRowJSON serializes a spreadsheet row map for row-error storage.
// Marshal errors degrade to an empty object so the row error itself
// can always be persisted.
func RawRowJSON(row map[string]string) string {
	data, err := json.Marshal(row)
	if err != nil {
		return "{}"
	}
	return string(data)
}
