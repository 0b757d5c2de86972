package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pssuai-admin/backend/internal/domain/mirror"

	"gorm.io/datatypes"
)

// eventTimeLayouts are the timestamp formats upstream has been seen to emit.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func mapAccessEvents(rows []map[string]any) ([]mirror.AccessEvent, error) {
	records := make([]mirror.AccessEvent, 0, len(rows))
	index := make(map[int64]int, len(rows))

	for _, row := range rows {
		id, ok := RowID(row)
		if !ok {
			continue
		}
		raw, err := marshalRaw(row)
		if err != nil {
			return nil, fmt.Errorf("access event %d: %w", id, err)
		}
		record := mirror.AccessEvent{
			ID:        id,
			Name:      stringField(row, "name"),
			Phone:     stringField(row, "phone"),
			Unit:      stringField(row, "unit"),
			DeviceID:  stringField(row, "device_id"),
			EventTime: parseEventTime(row["event_time"]),
			RawJSON:   raw,
		}
		if pos, seen := index[id]; seen {
			records[pos] = record
			continue
		}
		index[id] = len(records)
		records = append(records, record)
	}
	return records, nil
}

func mapQrEvents(rows []map[string]any) ([]mirror.QrEvent, error) {
	records := make([]mirror.QrEvent, 0, len(rows))
	index := make(map[int64]int, len(rows))

	for _, row := range rows {
		id, ok := RowID(row)
		if !ok {
			continue
		}
		raw, err := marshalRaw(row)
		if err != nil {
			return nil, fmt.Errorf("qr event %d: %w", id, err)
		}
		record := mirror.QrEvent{
			ID:           id,
			VisitorName:  firstNonEmpty(row, "visitor_name", "name"),
			VisitorPhone: firstNonEmpty(row, "visitor_phone", "phone"),
			HostUnit:     firstNonEmpty(row, "host_unit", "unit"),
			QrID:         firstNonEmpty(row, "qr_id", "qrCode", "qr_code"),
			EventTime:    parseEventTime(row["event_time"]),
			RawJSON:      raw,
		}
		if pos, seen := index[id]; seen {
			records[pos] = record
			continue
		}
		index[id] = len(records)
		records = append(records, record)
	}
	return records, nil
}

// RowID reads the integer primary key of an upstream row.
func RowID(row map[string]any) (int64, bool) {
	switch v := row["id"].(type) {
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case float64:
		return integral(v)
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}

func firstNonEmpty(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringField(row, key); value != "" {
			return value
		}
	}
	return ""
}

// parseEventTime accepts ISO-ish strings; anything else is stored as NULL.
func parseEventTime(value any) *time.Time {
	text, ok := value.(string)
	if !ok {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return &parsed
		}
	}
	return nil
}

func marshalRaw(row map[string]any) (datatypes.JSON, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(row); err != nil {
		return nil, fmt.Errorf("encode raw json: %w", err)
	}
	return datatypes.JSON(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
