package estimator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
)

// Default hyperparameters of value estimators
const (
	DefaultGamma      = 0.99
	DefaultLambda     = 0.95
	DefaultVectorized = true
)

// Config represents a configuration for creating a ValueEstimator
type Config interface {
	// Create creates the value estimator that the config describes
	Create(valueFn network.ValueFunc) (ValueEstimator, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of estimator the config describes
	Type() Type
}

// TD0Config implements a configuration of a TD(0) value estimator
type TD0Config struct {
	Gamma          float64
	AverageRewards bool
	Differentiable bool
}

// Type implements the Config interface
func (c TD0Config) Type() Type {
	return TD0Estimate
}

// Validate implements the Config interface
func (c TD0Config) Validate() error {
	return validGamma(c.Gamma)
}

// Create implements the Config interface
func (c TD0Config) Create(valueFn network.ValueFunc) (ValueEstimator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewTD0(valueFn, c.Gamma, c.AverageRewards, c.Differentiable), nil
}

// TD1Config implements a configuration of a TD(1) value estimator
type TD1Config struct {
	Gamma          float64
	AverageRewards bool
	Differentiable bool
}

// Type implements the Config interface
func (c TD1Config) Type() Type {
	return TD1Estimate
}

// Validate implements the Config interface
func (c TD1Config) Validate() error {
	return validGamma(c.Gamma)
}

// Create implements the Config interface
func (c TD1Config) Create(valueFn network.ValueFunc) (ValueEstimator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewTD1(valueFn, c.Gamma, c.AverageRewards, c.Differentiable), nil
}

// TDLambdaConfig implements a configuration of a TD(λ) value estimator
type TDLambdaConfig struct {
	Gamma          float64
	Lambda         float64
	AverageRewards bool
	Differentiable bool
	Vectorized     bool
}

// Type implements the Config interface
func (c TDLambdaConfig) Type() Type {
	return TDLambdaEstimate
}

// Validate implements the Config interface
func (c TDLambdaConfig) Validate() error {
	if err := validGamma(c.Gamma); err != nil {
		return err
	}
	return validLambda(c.Lambda)
}

// Create implements the Config interface
func (c TDLambdaConfig) Create(valueFn network.ValueFunc) (ValueEstimator,
	error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewTDLambda(valueFn, c.Gamma, c.Lambda, c.AverageRewards,
		c.Differentiable, c.Vectorized), nil
}

// GAEConfig implements a configuration of a GAE value estimator
type GAEConfig struct {
	Gamma          float64
	Lambda         float64
	AverageGAE     bool
	Differentiable bool
	Vectorized     bool
}

// Type implements the Config interface
func (c GAEConfig) Type() Type {
	return GAEEstimate
}

// Validate implements the Config interface
func (c GAEConfig) Validate() error {
	if err := validGamma(c.Gamma); err != nil {
		return err
	}
	return validLambda(c.Lambda)
}

// Create implements the Config interface
func (c GAEConfig) Create(valueFn network.ValueFunc) (ValueEstimator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewGAE(valueFn, c.Gamma, c.Lambda, c.AverageGAE, c.Differentiable,
		c.Vectorized), nil
}

func validGamma(gamma float64) error {
	if math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return fmt.Errorf("validate: gamma must be finite \n\thave(%v)",
			gamma)
	}
	return nil
}

func validLambda(lambda float64) error {
	if !(lambda >= 0 && lambda <= 1) {
		return fmt.Errorf("validate: lambda out of range \n\twant([0, 1])"+
			"\n\thave(%v)", lambda)
	}
	return nil
}

// DefaultConfig returns the configuration of an estimator of type t
// with default hyperparameters
func DefaultConfig(t Type) (Config, error) {
	switch t {
	case TD0Estimate:
		return TD0Config{Gamma: DefaultGamma}, nil
	case TD1Estimate:
		return TD1Config{Gamma: DefaultGamma}, nil
	case TDLambdaEstimate:
		return TDLambdaConfig{Gamma: DefaultGamma, Lambda: DefaultLambda,
			Vectorized: DefaultVectorized}, nil
	case GAEEstimate:
		return GAEConfig{Gamma: DefaultGamma, Lambda: DefaultLambda,
			Vectorized: DefaultVectorized}, nil
	default:
		return nil, targeterr.Unsupportedf("defaultConfig", "unknown "+
			"estimator type %q", t)
	}
}

// decodeConfig decodes a JSON configuration of an estimator of type t.
// Hyperparameters absent from data keep their default values.
func decodeConfig(t Type, data []byte) (Config, error) {
	def, err := DefaultConfig(t)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return def, nil
	}

	switch c := def.(type) {
	case TD0Config:
		err = strictUnmarshal(data, &c)
		def = c
	case TD1Config:
		err = strictUnmarshal(data, &c)
		def = c
	case TDLambdaConfig:
		err = strictUnmarshal(data, &c)
		def = c
	case GAEConfig:
		err = strictUnmarshal(data, &c)
		def = c
	}
	if err != nil {
		return nil, fmt.Errorf("decodeConfig: could not decode %v config: "+
			"%v", t, err)
	}
	return def, nil
}

// strictUnmarshal decodes data into v, returning an error for fields
// of data that v does not have
func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// TypedConfig wraps a Config to enable it to be JSON marshaled and
// unmarshaled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig returns a new TypedConfig
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// MarshalJSON implements the json.Marshaler interface
func (t TypedConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Type
		Config Config
	}{t.Type, t.Config})
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	config, err := decodeConfig(raw.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	t.Type = raw.Type
	t.Config = config
	return nil
}

// Make creates a value estimator of type t for the value function.
// The hyperparameters of the estimator are the defaults for its type,
// overridden by any hyperparameters named in overrides, for example
// {"Gamma": 0.9, "AverageRewards": true}.
func Make(t Type, valueFn network.ValueFunc,
	overrides map[string]interface{}) (ValueEstimator, error) {
	var data []byte
	if len(overrides) > 0 {
		var err error
		if data, err = json.Marshal(overrides); err != nil {
			return nil, fmt.Errorf("make: %v", err)
		}
	}

	config, err := decodeConfig(t, data)
	if err != nil {
		return nil, fmt.Errorf("make: %w", err)
	}
	return config.Create(valueFn)
}
