package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/cropadvisor/internal/domain/model"
)

const maxBodyBytes = 64 << 10

// decodeReading reads a JSON object holding exactly the seven reading keys.
// Keys match case-insensitively; values may be numbers or numeric strings,
// the way the web form posts them. Nothing may follow the object.
func decodeReading(body io.Reader) (model.SoilReading, error) {
	const op = "api.decode_reading"

	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := expectDelim(dec, '{'); err != nil {
		return model.SoilReading{}, WrapKind(op, ErrBadRequest, err)
	}

	index := make(map[string]int, len(model.FieldNames))
	for i, name := range model.FieldNames {
		index[strings.ToLower(name)] = i
	}

	var (
		values [7]float64
		seen   [7]bool
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return model.SoilReading{}, WrapKind(op, ErrBadRequest, err)
		}
		key, ok := tok.(string)
		if !ok {
			return model.SoilReading{}, WrapKind(op, ErrBadRequest, fmt.Errorf("unexpected token %v", tok))
		}
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			return model.SoilReading{}, WrapKind(op, ErrBadRequest, err)
		}

		i, ok := index[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return model.SoilReading{}, WrapKind(op, ErrUnknownField, fmt.Errorf("%q", key))
		}
		if seen[i] {
			return model.SoilReading{}, WrapKind(op, ErrDuplicateField, fmt.Errorf("%q", key))
		}
		v, err := parseNumber(msg)
		if err != nil {
			return model.SoilReading{}, WrapKind(op, ErrNotNumeric, fmt.Errorf("%s: %w", model.FieldNames[i], err))
		}
		values[i] = v
		seen[i] = true
	}
	if err := expectDelim(dec, '}'); err != nil {
		return model.SoilReading{}, WrapKind(op, ErrBadRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.SoilReading{}, WrapKind(op, ErrBadRequest, fmt.Errorf("trailing data after object"))
	}

	for i, ok := range seen {
		if !ok {
			return model.SoilReading{}, WrapKind(op, ErrMissingField, fmt.Errorf("%s", model.FieldNames[i]))
		}
	}
	return model.ReadingFromValues(values), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func parseNumber(msg json.RawMessage) (float64, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return 0, fmt.Errorf("null")
	}
	if len(msg) > 0 && msg[0] == '"' {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return 0, err
		}
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil {
		return 0, err
	}
	return f, nil
}
