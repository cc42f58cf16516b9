package env

import (
	"os"

	"github.com/cockroachdb/errors"
)

// ApplicationEnvKey is the environment variable selecting the runtime
// environment.
const ApplicationEnvKey = "ENVIRONMENT"

// Environment identifies where the process is running.
type Environment string

const (
	EnvironmentLocal       Environment = "local"
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsEnvironmentValid reports whether e is one of the known environments.
func IsEnvironmentValid(e Environment) error {
	switch e {
	case EnvironmentLocal, EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction:
		return nil
	}
	return errors.Newf("invalid environment: %q", e)
}

// FromString parses s into an Environment.
func FromString(s string) (Environment, error) {
	e := Environment(s)
	if err := IsEnvironmentValid(e); err != nil {
		return "", err
	}
	return e, nil
}

// GetApplicationEnv reads and validates ENVIRONMENT.
func GetApplicationEnv() (Environment, error) {
	return FromString(os.Getenv(ApplicationEnvKey))
}

// GetApplicationEnvOrDefault reads ENVIRONMENT, returning def when unset or
// invalid.
func GetApplicationEnvOrDefault(def Environment) Environment {
	e, err := GetApplicationEnv()
	if err != nil {
		return def
	}
	return e
}

// GetApplicationEnvSafe reads ENVIRONMENT, defaulting to production so a
// missing variable never loosens configuration.
func GetApplicationEnvSafe() Environment {
	return GetApplicationEnvOrDefault(EnvironmentProduction)
}

// IsLocalApplicationEnv reports whether the process runs on a developer
// machine.
func IsLocalApplicationEnv() bool {
	return GetApplicationEnvSafe() == EnvironmentLocal
}
