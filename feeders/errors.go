package feeders

import "errors"

// Feeder errors
var (
	ErrNotStructPointer  = errors.New("target must be a non-nil pointer to a struct")
	ErrEnvConversion     = errors.New("cannot convert environment value")
	ErrFileRead          = errors.New("cannot read configuration file")
	ErrYamlDecode        = errors.New("cannot decode yaml configuration")
	ErrTomlDecode        = errors.New("cannot decode toml configuration")
	ErrSectionNotFound   = errors.New("configuration section not found")
	ErrProfileNotDefined = errors.New("profile prefix function not defined")
)
