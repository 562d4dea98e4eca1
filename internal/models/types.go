package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"riy-server/internal/waste"
)

// StringArray is stored as a JSON array column.
type StringArray []string

func (sa StringArray) Value() (driver.Value, error) {
	if len(sa) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(sa)
}

func (sa *StringArray) Scan(value interface{}) error {
	return scanJSON(value, sa, "StringArray")
}

// DIYIdeaList is stored as a JSON array column.
type DIYIdeaList []waste.DIYIdea

func (l DIYIdeaList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *DIYIdeaList) Scan(value interface{}) error {
	return scanJSON(value, l, "DIYIdeaList")
}

func scanJSON(value interface{}, dst any, name string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for %s: %T", name, value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
