package worker

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/eventatlas/eventatlas/canonical"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed payload.schema.json
var payloadSchemaDef []byte

var payloadSchema = mustCompileSchema(payloadSchemaDef)

var printer = message.NewPrinter(language.English)

func mustCompileSchema(def []byte) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	if err := c.AddResource("payload.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("payload.json")
}

// SourcePayload is an event as described by an upstream source
type SourcePayload struct {
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	StartsAt         time.Time       `json:"startsAt"`
	EndsAt           *time.Time      `json:"endsAt"`
	Country          string          `json:"country"`
	Region           *string         `json:"region"`
	City             *string         `json:"city"`
	Vibe             []string        `json:"vibe"`
	Amenities        []string        `json:"amenities"`
	ClothingOptional *bool           `json:"clothingOptional"`
	Accessibility    map[string]bool `json:"accessibility"`
}

// ParsePayload validates raw against the payload schema and decodes it.
// Any failure is a *errs.ValidateError.
func ParsePayload(raw []byte) (*SourcePayload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errs.NewValidateError(fmt.Errorf("%w: empty payload", errs.ErrPayloadValidate))
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errs.NewValidateError(fmt.Errorf("%w: %s", errs.ErrPayloadValidate, err))
	}
	if err := payloadSchema.Validate(value); err != nil {
		return nil, convertSchemaError(err)
	}

	payload := &SourcePayload{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     payload,
		DecodeHook: stringToInstantHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(value); err != nil {
		return nil, errs.NewValidateError(fmt.Errorf("%w: %s", errs.ErrPayloadValidate, err))
	}
	return payload, nil
}

func convertSchemaError(err error) error {
	var e *jsonschema.ValidationError
	if !errors.As(err, &e) {
		return errs.NewValidateError(fmt.Errorf("%w: %s", errs.ErrPayloadValidate, err))
	}

	fields := make(map[string]interface{})
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}
		if required, ok := e.ErrorKind.(*kind.Required); ok {
			for _, name := range required.Missing {
				fields[strings.Join(append(e.InstanceLocation, name), ".")] = "required field missing"
			}
			return
		}
		path := strings.Join(e.InstanceLocation, ".")
		if path == "" {
			path = "$"
		}
		fields[path] = e.ErrorKind.LocalizedString(printer)
	}
	walk(e)
	return errs.NewValidateFieldsError(errs.ErrPayloadValidate, fields)
}

var instantType = reflect.TypeOf(time.Time{})

// stringToInstantHook accepts RFC 3339 instants and YYYY-MM-DD dates (midnight UTC)
func stringToInstantHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != instantType {
		return data, nil
	}
	return ParseInstant(data.(string))
}

// ParseInstant reads an RFC 3339 timestamp or a YYYY-MM-DD date as a UTC instant, dates map to midnight
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q", s)
	}
	return t.UTC(), nil
}

// Normalize turns a decoded payload into the canonical record of the given source
func Normalize(p *SourcePayload, source string, now time.Time) (*entities.Event, error) {
	fields := make(map[string]interface{})

	name := strings.TrimSpace(p.Name)
	if name == "" {
		fields["name"] = "cannot be blank"
	}
	typ := entities.EventType(strings.ToUpper(strings.TrimSpace(p.Type)))
	if !typ.Valid() {
		fields["type"] = fmt.Sprintf("must be one of %v", entities.EventTypes)
	}
	country := strings.ToUpper(strings.TrimSpace(p.Country))
	if !utils.IsCountryCode(country) {
		fields["country"] = "must be an ISO 3166-1 alpha-2 code"
	}

	startsAt := p.StartsAt.UTC().Truncate(time.Millisecond)
	endsAt := startsAt
	if p.EndsAt != nil {
		endsAt = p.EndsAt.UTC().Truncate(time.Millisecond)
	}
	if endsAt.Before(startsAt) {
		fields["endsAt"] = "must not be before startsAt"
	}
	if len(fields) > 0 {
		return nil, errs.NewValidateFieldsError(errs.ErrPayloadValidate, fields)
	}

	accessibility := entities.Flags{}
	for k, v := range p.Accessibility {
		if k = strings.TrimSpace(k); k != "" {
			accessibility[k] = v
		}
	}

	return &entities.Event{
		Hash:             canonical.Hash(name, startsAt, country),
		Name:             name,
		Type:             typ,
		StartsAt:         startsAt,
		EndsAt:           endsAt,
		DurationDays:     canonical.DurationDays(startsAt, endsAt),
		Country:          country,
		Region:           optional(p.Region),
		City:             optional(p.City),
		Source:           source,
		Vibe:             utils.NormalizeSet(p.Vibe),
		Amenities:        utils.NormalizeSet(p.Amenities),
		ClothingOptional: utils.PointerValue(p.ClothingOptional),
		Accessibility:    accessibility,
		LastChecked:      now.UTC(),
	}, nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
