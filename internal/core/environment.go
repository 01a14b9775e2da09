package core

// Environment selects the runtime profile of the extractor, which mainly
// drives logger setup.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment maps the configured value onto a known environment.
// Unknown values fall back to Development so the console still starts with
// verbose logging.
func ParseEnvironment(v string) Environment {
	switch Environment(v) {
	case Production:
		return Production
	case Testing:
		return Testing
	default:
		return Development
	}
}
