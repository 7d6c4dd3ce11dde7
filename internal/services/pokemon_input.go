package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Wikid82/pokedex/backend/internal/models"
)

// ValidationError reports the first invalid field of a request body.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CreatePokemonInput is a validated create request.
type CreatePokemonInput struct {
	Name     models.PokemonName
	Type     []string
	Base     models.Stats
	ImageURL string
}

// PokemonPatch holds the fields provided by an update request. Nil means absent.
type PokemonPatch struct {
	Name  *models.PokemonName
	Type  []string
	Base  models.Stats
	Image *string
}

// Empty reports whether the patch changes nothing.
func (p *PokemonPatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Base == nil && p.Image == nil
}

// pokemonBody is the wire form of create and update requests. Locale names are
// checked with binding tags; base stats are walked separately so errors can name
// the offending stat.
type pokemonBody struct {
	Name     *nameBody       `json:"name"`
	Type     []string        `json:"type"`
	Base     json.RawMessage `json:"base"`
	ImageURL string          `json:"imageUrl"`
	Image    string          `json:"image"`
}

type nameBody struct {
	English  string `json:"english" binding:"required"`
	French   string `json:"french" binding:"required"`
	Japanese string `json:"japanese"`
	Chinese  string `json:"chinese"`
}

const (
	typesRule    = "required,min=1,dive,required"
	nonEmptyRule = "required"
)

// ParseCreateInput validates a create body: both name locales, a non-empty type
// list, an object of integer base stats and a non-empty imageUrl.
func ParseCreateInput(body []byte) (*CreatePokemonInput, error) {
	req, _, err := decodeBody(body)
	if err != nil {
		return nil, err
	}

	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	if err := validateVar("type", req.Type, typesRule); err != nil {
		return nil, err
	}
	base, err := parseBase(req.Base)
	if err != nil {
		return nil, err
	}
	if err := validateVar("imageUrl", req.ImageURL, nonEmptyRule); err != nil {
		return nil, err
	}

	return &CreatePokemonInput{Name: *name, Type: req.Type, Base: base, ImageURL: req.ImageURL}, nil
}

// ParsePatch validates the fields an update body provides with the create rules.
// Unknown fields and "id" are ignored.
func ParsePatch(body []byte) (*PokemonPatch, error) {
	req, present, err := decodeBody(body)
	if err != nil {
		return nil, err
	}

	patch := &PokemonPatch{}
	if present["name"] {
		if patch.Name, err = validateName(req.Name); err != nil {
			return nil, err
		}
	}
	if present["type"] {
		if err := validateVar("type", req.Type, typesRule); err != nil {
			return nil, err
		}
		patch.Type = req.Type
	}
	if present["base"] {
		if patch.Base, err = parseBase(req.Base); err != nil {
			return nil, err
		}
	}
	if present["image"] {
		if err := validateVar("image", req.Image, nonEmptyRule); err != nil {
			return nil, err
		}
		patch.Image = &req.Image
	}
	return patch, nil
}

// decodeBody unmarshals an object body, trims names and types, and reports which
// top-level fields were sent.
func decodeBody(body []byte) (*pokemonBody, map[string]bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, nil, invalid("body", "must be a JSON object")
	}
	present := make(map[string]bool, len(fields))
	for k := range fields {
		present[k] = true
	}

	req := &pokemonBody{}
	if err := json.Unmarshal(body, req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, nil, invalid(typeErr.Field, "has the wrong type")
		}
		return nil, nil, invalid("body", "must be a JSON object")
	}

	if req.Name != nil {
		req.Name.English = strings.TrimSpace(req.Name.English)
		req.Name.French = strings.TrimSpace(req.Name.French)
		req.Name.Japanese = strings.TrimSpace(req.Name.Japanese)
		req.Name.Chinese = strings.TrimSpace(req.Name.Chinese)
	}
	for i, t := range req.Type {
		req.Type[i] = strings.TrimSpace(t)
	}
	return req, present, nil
}

func validateName(name *nameBody) (*models.PokemonName, error) {
	if name == nil {
		return nil, invalid("name", "is required")
	}
	if err := binding.Validator.ValidateStruct(name); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return nil, invalid("name."+strings.ToLower(errs[0].Field()), ruleMessage(errs[0].Tag()))
		}
		return nil, invalid("name", err.Error())
	}
	return &models.PokemonName{
		English:  name.English,
		French:   name.French,
		Japanese: name.Japanese,
		Chinese:  name.Chinese,
	}, nil
}

func validateVar(field string, value any, rule string) error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return invalid(field, "cannot be validated")
	}
	if err := engine.Var(value, rule); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return invalid(field, ruleMessage(errs[0].Tag()))
		}
		return invalid(field, err.Error())
	}
	return nil
}

func ruleMessage(tag string) string {
	switch tag {
	case "required":
		return "is required and must not be empty"
	case "min":
		return "must contain at least one entry"
	}
	return "is invalid"
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseBase(raw json.RawMessage) (models.Stats, error) {
	if isNull(raw) {
		return nil, invalid("base", "is required")
	}
	var stats map[string]json.RawMessage
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, invalid("base", "must be an object of stat values")
	}
	base := make(models.Stats, len(stats))
	for name, value := range stats {
		if strings.TrimSpace(name) == "" {
			return nil, invalid("base", "stat names must not be empty")
		}
		var n int
		if err := json.Unmarshal(value, &n); err != nil || isNull(value) {
			return nil, invalid("base."+name, "must be an integer")
		}
		base[name] = n
	}
	return base, nil
}
