package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"trepro/internal/chart"
	"trepro/internal/faults"
	"trepro/internal/frame"
)

// CurrentVersion is written by Encode.
const CurrentVersion = "1.0"

const (
	KeySaveVersion     = "save_version"
	KeyChart           = "chart"
	KeyProducerVersion = "producer_version"
)

// Record is the metadata embedded after a chart payload.
type Record struct {
	SaveVersion     string        `validate:"required"`
	Chart           *chart.Figure `validate:"required"`
	ProducerVersion string
	Provenance      map[string]string
}

// DecoderFunc turns the members of a record object into a Record.
type DecoderFunc func(members map[string]json.RawMessage) (Record, error)

var (
	recordValidate = validator.New(validator.WithRequiredStructEnabled())

	decodersMu sync.RWMutex
	decoders   = map[string]DecoderFunc{
		CurrentVersion: decodeV1,
	}
)

// New builds a current-version record for fig.
func New(fig *chart.Figure, provenance map[string]string) Record {
	return Record{
		SaveVersion:     CurrentVersion,
		Chart:           fig,
		ProducerVersion: chart.LibraryVersion(),
		Provenance:      provenance,
	}
}

// IsReserved reports whether key is one of the record's own members.
func IsReserved(key string) bool {
	switch key {
	case KeySaveVersion, KeyChart, KeyProducerVersion:
		return true
	}
	return false
}

// Metadata flattens the record into the string map handed back to callers:
// save_version, producer_version and every provenance key.
func (r Record) Metadata() map[string]string {
	out := make(map[string]string, len(r.Provenance)+2)
	for k, v := range r.Provenance {
		if !IsReserved(k) {
			out[k] = v
		}
	}
	out[KeySaveVersion] = r.SaveVersion
	if r.ProducerVersion != "" {
		out[KeyProducerVersion] = r.ProducerVersion
	}
	return out
}

// Encode serializes rec as a single JSON object. Provenance keys that collide
// with reserved members are dropped.
func Encode(rec Record) ([]byte, error) {
	if err := recordValidate.Struct(rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if err := rec.Chart.Validate(); err != nil {
		return nil, fmt.Errorf("encode record: chart: %w", err)
	}

	members := make(map[string]any, len(rec.Provenance)+3)
	for k, v := range rec.Provenance {
		if IsReserved(k) {
			continue
		}
		members[k] = v
	}
	members[KeySaveVersion] = rec.SaveVersion
	members[KeyChart] = rec.Chart
	if rec.ProducerVersion != "" {
		members[KeyProducerVersion] = rec.ProducerVersion
	}

	data, err := json.Marshal(members)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return escapeSentinels(data), nil
}

// escapeSentinels rewrites sentinel text inside JSON strings (a captured diff
// of frame.go, say) with an escaped underscore. The decoded value is the same
// but the block can no longer be mistaken for the end of the frame.
func escapeSentinels(data []byte) []byte {
	for _, sentinel := range [][]byte{frame.Start, frame.End} {
		if !bytes.Contains(data, sentinel) {
			continue
		}
		escaped := bytes.Replace(sentinel, []byte("_"), []byte(`\u005f`), 1)
		data = bytes.ReplaceAll(data, sentinel, escaped)
	}
	return data
}

// Decode parses a record block. Every failure carries faults.ErrDecode.
func Decode(data []byte) (Record, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		if err == nil {
			err = errors.New("null record")
		}
		return Record{}, decodeErr("record is not a JSON object", err)
	}

	version, err := stringMember(members, KeySaveVersion)
	if err != nil {
		return Record{}, decodeErr("save_version", err)
	}
	if version == "" {
		return Record{}, decodeErr("save_version missing", nil)
	}

	decodersMu.RLock()
	decode, ok := decoders[version]
	decodersMu.RUnlock()
	if !ok {
		return Record{}, decodeErr(fmt.Sprintf("unsupported save_version %q", version), nil)
	}

	rec, err := decode(members)
	if err != nil {
		return Record{}, decodeErr(fmt.Sprintf("version %s", version), err)
	}
	if err := recordValidate.Struct(rec); err != nil {
		return Record{}, decodeErr("record validation", err)
	}
	return rec, nil
}

// RegisterDecoder installs the decoder used for records written with version.
func RegisterDecoder(version string, fn DecoderFunc) {
	if version == "" || fn == nil {
		return
	}
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[version] = fn
}

// Versions lists the save versions Decode understands.
func Versions() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	return slices.Sorted(maps.Keys(decoders))
}

func decodeV1(members map[string]json.RawMessage) (Record, error) {
	rawChart, ok := members[KeyChart]
	if !ok || isNull(rawChart) {
		return Record{}, errors.New("chart member missing")
	}
	dec := json.NewDecoder(bytes.NewReader(rawChart))
	dec.DisallowUnknownFields()
	var fig chart.Figure
	if err := dec.Decode(&fig); err != nil {
		return Record{}, fmt.Errorf("chart member: %w", err)
	}
	if err := fig.Validate(); err != nil {
		return Record{}, fmt.Errorf("chart member: %w", err)
	}

	producer, err := stringMember(members, KeyProducerVersion)
	if err != nil {
		return Record{}, err
	}

	provenance := make(map[string]string, len(members))
	for key, raw := range members {
		if IsReserved(key) {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil || isNull(raw) {
			return Record{}, fmt.Errorf("member %q is not a string", key)
		}
		provenance[key] = value
	}

	return Record{
		SaveVersion:     CurrentVersion,
		Chart:           &fig,
		ProducerVersion: producer,
		Provenance:      provenance,
	}, nil
}

func stringMember(members map[string]json.RawMessage, key string) (string, error) {
	raw, ok := members[key]
	if !ok {
		return "", nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil || isNull(raw) {
		return "", fmt.Errorf("member %q is not a string", key)
	}
	return value, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeErr(message string, err error) error {
	return faults.Wrap(faults.ErrDecode, "codec", "decode", message, err)
}
